package main

func (cl *commandLine) migrate(args []string) error {
	if cl.db == nil {
		return errNoAuditLog
	}
	return gooseRunFunc(cl.db, args[0], args[1:]...)
}
