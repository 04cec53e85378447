package main

import (
	"fmt"
	"net/http"

	"github.com/liftingsocial/wlbridge/go/internal/httpapi"
)

func setupServer(config *Config, services *Services) *http.Server {
	handler := httpapi.SetupRoutes(services.Handler, config.Server.AdminToken)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Server.Port),
		Handler: handler,
	}
}
