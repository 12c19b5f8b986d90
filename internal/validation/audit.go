package validation

import (
	"net/url"
	"strconv"
)

type AuditQuery struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func ValidateAuditQuery(values url.Values) (*AuditQuery, map[string]string) {
	errs := map[string]string{}
	q := &AuditQuery{Page: 1, Limit: 10}

	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs["page"] = "page must be a positive integer"
		} else {
			q.Page = n
		}
	}
	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			errs["limit"] = "limit must be between 1 and 100"
		} else {
			q.Limit = n
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return q, nil
}
