package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"jdpanel/pkg/config"
	apperrors "jdpanel/pkg/errors"
)

const TenantHeader = "X-Tenant-ID"

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// TenantID reads the dashboard owner identifier every tenant-scoped route requires.
func TenantID(r *http.Request) (string, error) {
	tenant := strings.TrimSpace(r.Header.Get(TenantHeader))
	if tenant == "" {
		return "", apperrors.Unauthorized("missing " + TenantHeader + " header")
	}
	return tenant, nil
}

// DecodeJSON decodes a request body, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
	return nil
}
