package main

import (
	"context"

	"github.com/disiplinku/backend/core/admin"
)

// addUser creates an admin.Admin or resets their password.
func (cl *commandLine) addUser(uname, pwd string) error {
	_, err := cl.adminSvc.Save(context.Background(), admin.NewAdmin{Username: uname, Password: pwd})
	return err
}

func (cl *commandLine) genKey(uname string) (string, error) {
	ctx := context.Background()
	adm, err := cl.adminSvc.GetByUsername(ctx, uname)
	if err != nil {
		return "", err
	}
	return cl.adminSvc.GenerateAPIKey(ctx, adm.ID)
}
