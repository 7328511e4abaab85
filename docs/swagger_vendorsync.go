package docs

// @title           Vendor Location Sync API
// @version         1.0
// @description     Local control API of the vendor location sync agent. Vendor mode starts and stops position sharing; viewer mode exposes the live vendor roster, favorite vendors and proximity notification settings.

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /
