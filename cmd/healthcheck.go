package main

import "net/http"

func (app *application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	data := envelope{
		"status": "available",
		"system_info": map[string]string{
			"environment": app.config.Env,
		},
	}

	if err := app.core.Ping(r.Context()); err != nil {
		app.logger.Warn("Healthcheck database ping failed", "error", err)
		data["status"] = "degraded"
		if err := app.writeJSON(w, http.StatusServiceUnavailable, data, nil); err != nil {
			app.internalErrorResponse(w, r, err)
		}
		return
	}

	if err := app.writeJSON(w, http.StatusOK, data, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}
