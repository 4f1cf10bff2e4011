package echoapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/disiplinku/backend/core"
	"github.com/disiplinku/backend/core/notification"
)

type TriggerRequest struct {
	Type string `json:"type"`
}

type notificationApi struct {
	dispatcher Dispatcher
}

// send runs one dispatch. The type comes from the JSON body, whatever its Content-Type,
// or from the `type` query param.
func (api *notificationApi) send(ctx echo.Context) error {
	var data TriggerRequest
	if ctx.Request().ContentLength != 0 {
		if err := json.NewDecoder(ctx.Request().Body).Decode(&data); err != nil && err != io.EOF {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body: "+err.Error()).SetInternal(err)
		}
	}
	if data.Type == "" {
		data.Type = ctx.QueryParam("type")
	}

	// a run is not cancelled with its request: a delivery sent but not marked would be sent again
	runCtx := context.WithoutCancel(ctx.Request().Context())

	res, err := api.dispatcher.Dispatch(runCtx, notification.ParseSelector(data.Type))
	if err != nil {
		if errors.Cause(err) == core.ErrConfigMissing {
			return ctx.JSON(http.StatusInternalServerError, notification.Envelope{Error: err.Error()})
		}
		return errors.Wrap(err, "dispatching notifications")
	}

	code := http.StatusOK
	if !res.Success() {
		code = http.StatusInternalServerError
	}
	return ctx.JSON(code, res.Envelope())
}
