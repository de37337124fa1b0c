package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/vietanh2810/coffeeshop-api/cmd/app"
)

// @title           Coffee Shop API
// @version         1.0
// @description     Ordering storefront: menu, cart, orders, payments and the admin back office.
// @termsOfService  http://swagger.io/terms/
// @contact.name   API Support
//
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
//
// @externalDocs.description  OpenAPI
// @externalDocs.url          https://swagger.io/resources/open-api/
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
