package errors

import "fmt"

func InvalidParamsErr(err error) error {
	return E(Invalid, "invalid params", err)
}

func InvalidBodyErr(err error) error {
	return E(Invalid, "invalid request body", err)
}

func ValidationFailedErr(err error) error {
	return E(Invalid, "validation failed", err)
}

func EmptyParamErr(field string) error {
	ve := ValidationErrs()
	ve.Add(field, "cannot be empty")
	return E(Invalid, "validation failed", ve.Err())
}

func NotFoundErr(what, id string) error {
	return E(NotFound, fmt.Sprintf("%s %s not found", what, id), nil)
}

// ConflictErr returns a formatted error for an identity that already exists
func ConflictErr(what, id string, err error) error {
	return E(Conflict, fmt.Sprintf("%s %s already exists", what, id), err)
}

func UnauthorizedErr(msg string) error {
	return E(Unauthorized, msg, nil)
}

// ForbiddenErr is for an authenticated caller that may not perform the action.
func ForbiddenErr(msg string) error {
	return E(Forbidden, msg, nil)
}
