package validation

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func ValidateLogin(in *LoginInput) map[string]string {
	errs := map[string]string{}

	if len(in.Username) < 4 {
		errs["username"] = "Username must be at least 4 characters"
	}
	if len(in.Password) < 8 {
		errs["password"] = "Password must be at least 8 characters"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
