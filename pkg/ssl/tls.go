package ssl

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// TlsHandler redirects plain HTTP traffic to the HTTPS host when TLS is
// enabled in config. The secure middleware writes the redirect itself, so on
// error we just stop the chain without touching the response.
func TlsHandler(host string, port int) gin.HandlerFunc {
	return func(c *gin.Context) {
		secureMiddleware := secure.New(secure.Options{
			SSLRedirect: true,
			SSLHost:     host + ":" + strconv.Itoa(port),
		})
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			return
		}
		c.Next()
	}
}
