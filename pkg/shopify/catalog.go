package shopify

// StatusCatalog maps HTTP status codes returned by the Admin API to a
// one-line explanation. It is read-only once built.
type StatusCatalog map[int]string

// UnknownStatus is reported for codes missing from the catalog.
const UnknownStatus = "Unknown"

// DefaultStatusCatalog returns the response codes documented for the REST Admin API.
func DefaultStatusCatalog() StatusCatalog {
	return StatusCatalog{
		100: "100 Continue -> The server has received the request headers and the client should proceed to send the request body.",
		200: "200 OK -> The request was successfully processed by Shopify.",
		201: "201 Created -> The request has been fulfilled and a new resource has been created.",
		202: "202 Accepted -> The request has been accepted, but not yet processed.",
		400: "400 Bad Request -> The request was not understood by the server, generally due to bad syntax.",
		401: "401 Unauthorized -> The necessary authentication credentials are not present in the request or are incorrect.",
		402: "402 Payment Required -> The requested shop is frozen.",
		403: "403 Forbidden -> The server is refusing to respond to the request. This is generally because the appropriate scope was not requested for the action.",
		404: "404 Not Found -> The requested resource was not found but could be available again in the future.",
		406: "406 Not Acceptable -> The requested resource is only capable of generating content not acceptable according to the Accept headers sent in the request.",
		422: "422 Unprocessable Entity -> The request body was well-formed but contains semantical errors.",
		429: "429 Too Many Requests -> The request was not accepted because the application has exceeded the rate limit.",
		500: "500 Internal Server Error -> An internal error occurred in Shopify.",
		501: "501 Not Implemented -> The requested endpoint is not available on that particular shop.",
		503: "503 Service Unavailable -> The server is unavailable. Check the status page for reported service outages.",
	}
}

func (c StatusCatalog) Explain(code int) string {
	if msg, ok := c[code]; ok {
		return msg
	}
	return UnknownStatus
}
