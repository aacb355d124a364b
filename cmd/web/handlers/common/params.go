package common

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"

	"thirdcoast.systems/vidscan/internal/videoid"
)

// RequireVideoIDParam extracts a video id route parameter or returns a 400 error.
func RequireVideoIDParam(c echo.Context, param string) (string, error) {
	id := c.Param(param)
	if err := videoid.Validate(id); err != nil {
		return "", ErrBadRequest("invalid " + param + ": " + err.Error())
	}
	return id, nil
}

// RequireUUIDParam extracts a UUID route parameter or returns a 400 error.
func RequireUUIDParam(c echo.Context, param string) (pgtype.UUID, error) {
	var u pgtype.UUID
	if err := u.Scan(c.Param(param)); err != nil {
		return u, ErrBadRequest("invalid " + param)
	}
	return u, nil
}

// QueryBool reads a boolean query parameter. Missing or unparsable values are false.
func QueryBool(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(c.QueryParam(name)))
	return err == nil && v
}
