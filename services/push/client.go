package pushsvc

import (
	"context"

	"github.com/sendgrid/rest"
)

// send is rest.Client.Send bound to ctx.
func send(ctx context.Context, client *rest.Client, req rest.Request) (*rest.Response, error) {
	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return nil, err
	}
	res, err := client.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return rest.BuildResponse(res)
}
