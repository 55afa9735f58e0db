package main

// General API documentation for swaggo. The document is registered by
// internal/httpapi/docs and served under /swagger/ with -tags=swagger.
//
// @title           colorizerd API
// @version         1.0
// @description     HTTP API for single-model image colorization.
//
// @contact.name   colorizerd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
