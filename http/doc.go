// Package http provides the JSON response helpers used by the actuator.
//
// Response wraps http.ResponseWriter:
//
//	res := gohttp.NewResponse(w)
//	res.Success(beans)                       // 200 {"data": beans}
//	res.NotFound("no bean named cart")       // 404 {"message": "..."}
//	res.ServiceUnavailable(health)           // 503 health
//	res.JSON(http.StatusOK, map[string]any{"status": "UP"})
package http
