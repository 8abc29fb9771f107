package user

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/projectplatec/platec/core"
)

// credential policy
const pwdMinLen = 4

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9\-._@]+$`)

func checkPassword(pwd string) []core.FieldError {
	if utf8.RuneCountInString(pwd) < pwdMinLen {
		return []core.FieldError{{Field: "password", Error: fmt.Sprintf("Passwords must be at least %d characters.", pwdMinLen)}}
	}
	return nil
}

func invalidUsernameMsg(uname string) string {
	return fmt.Sprintf("Username '%s' is invalid, can only contain letters or digits.", uname)
}

func usernameTakenMsg(uname string) string {
	return fmt.Sprintf("Username '%s' is already taken.", uname)
}

func invalidEmailMsg(email string) string {
	return fmt.Sprintf("Email '%s' is invalid.", email)
}

func emailTakenMsg(email string) string {
	return fmt.Sprintf("Email '%s' is already taken.", email)
}
