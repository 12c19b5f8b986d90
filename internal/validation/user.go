// Package validation holds the pure input checks that run before any store
// access. Each validator returns the parsed input plus a field-keyed error
// map; a non-empty map means the request never reaches the database.
package validation

import (
	"net/url"
	"strconv"
	"time"
)

var sortColumns = map[string]bool{
	"username":  true,
	"name":      true,
	"role":      true,
	"createdAt": true,
	"updatedAt": true,
}

// ListQuery is the canonical, validated form of a user list request. Its
// JSON encoding doubles as the cache key, so field order and omitempty
// matter: two equivalent queries must serialize identically.
type ListQuery struct {
	Page        int        `json:"page"`
	Limit       int        `json:"limit"`
	Q           string     `json:"q,omitempty"`
	Role        string     `json:"role,omitempty"`
	CreatedFrom *time.Time `json:"createdFrom,omitempty"`
	CreatedTo   *time.Time `json:"createdTo,omitempty"`
	SortBy      string     `json:"sortBy,omitempty"`
	SortDir     string     `json:"sortDir,omitempty"`
}

func ValidateListQuery(values url.Values) (*ListQuery, map[string]string) {
	errs := map[string]string{}
	q := &ListQuery{Page: 1, Limit: 10}

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

	q.Q = values.Get("q")
	q.Role = values.Get("role")

	if v := values.Get("createdFrom"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			errs["createdFrom"] = "createdFrom must be a valid date"
		} else {
			q.CreatedFrom = &t
		}
	}
	if v := values.Get("createdTo"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			errs["createdTo"] = "createdTo must be a valid date"
		} else {
			q.CreatedTo = &t
		}
	}

	if v := values.Get("sortBy"); v != "" {
		if !sortColumns[v] {
			errs["sortBy"] = "sortBy must be one of username, name, role, createdAt, updatedAt"
		} else {
			q.SortBy = v
		}
	}
	if v := values.Get("sortDir"); v != "" {
		if v != "asc" && v != "desc" {
			errs["sortDir"] = "sortDir must be asc or desc"
		} else {
			q.SortDir = v
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return q, nil
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

type CreateUserInput struct {
	Name            string `json:"name"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role"`
}

func ValidateCreateUser(in *CreateUserInput) map[string]string {
	errs := map[string]string{}

	if len(in.Name) < 4 {
		errs["name"] = "Name must be at least 4 characters"
	} else if len(in.Name) > 100 {
		errs["name"] = "Name must be at most 100 characters"
	}

	if len(in.Username) < 4 {
		errs["username"] = "Username must be at least 4 characters"
	} else if len(in.Username) > 100 {
		errs["username"] = "Username must be at most 100 characters"
	}

	if len(in.Password) < 8 {
		errs["password"] = "Password must be at least 8 characters"
	} else if len(in.Password) > 100 {
		errs["password"] = "Password must be at most 100 characters"
	}

	if _, ok := errs["password"]; !ok && in.Password != in.ConfirmPassword {
		errs["confirm_password"] = "Passwords do not match"
	}

	if in.Role != "admin" && in.Role != "user" {
		errs["role"] = "Role must be admin or user"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateUserInput uses pointers so an absent field is distinguishable from
// an empty one; the role restriction only applies when the key is present.
type UpdateUserInput struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Role     *string `json:"role"`
}

func ValidateUpdateUser(in *UpdateUserInput) map[string]string {
	errs := map[string]string{}

	if in.Name != nil && len(*in.Name) < 1 {
		errs["name"] = "Name must not be empty"
	}
	if in.Username != nil && len(*in.Username) < 4 {
		errs["username"] = "Username must be at least 4 characters"
	}
	if in.Role != nil && *in.Role != "admin" && *in.Role != "user" {
		errs["role"] = "Role must be admin or user"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdatePasswordInput struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func ValidateUpdatePassword(in *UpdatePasswordInput) map[string]string {
	errs := map[string]string{}

	if len(in.Password) < 8 {
		errs["password"] = "Password must be at least 8 characters"
	} else if in.Password != in.ConfirmPassword {
		errs["confirm_password"] = "Password confirmation does not match"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DeleteUserInput struct {
	ConfirmPassword string `json:"confirm_password"`
}

func ValidateDeleteUser(in *DeleteUserInput) map[string]string {
	if len(in.ConfirmPassword) < 8 {
		return map[string]string{"confirm_password": "Password confirmation is required"}
	}
	return nil
}
