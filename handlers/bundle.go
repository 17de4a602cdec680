package handlers

import "agencyhub/middleware"

// HandlerBundle groups the endpoint handlers and the authorizer the routes share.
type HandlerBundle struct {
	Invoices *InvoiceHandler
	Admin    *AdminHandler
	Auth     *middleware.AdminAuthorizer

	RequestsPerMin int
}
