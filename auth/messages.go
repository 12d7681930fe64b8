package auth

import (
	"fmt"
	"time"
)

const (
	msgInvalidCredentials = "Invalid credentials."
	msgInactive           = "Your account is inactive. Check your email or request a new activation link."
	msgCodeSent           = "A 6-digit verification code has been sent to your email."
	msgNoPendingLogin     = "Your login session has expired. Please sign in again."
	msgInvalidCode        = "Invalid or expired verification code."
	msgAuthenticated      = "Login successful."

	msgActivated          = "Account activated. You can now sign in."
	msgActivationInvalid  = "The activation link is invalid or has already been used."
	msgActivationExpired  = "The activation link has expired. Request a new one."
	msgAlreadyActive      = "Your account is already active. You can sign in."
	msgActivationGeneric  = "If the account exists and is inactive, an activation email has been sent."
	msgActivationLinkSent = "Activation link sent. Check your email."
	msgResetGeneric       = "If the email is registered, a password reset link has been sent."
	msgResetInvalid       = "The password reset link is invalid."
	msgResetExpired       = "The password reset link has expired. Request a new one."
	msgResetValid         = "The password reset link is valid."
	msgPasswordReset      = "Password reset. You can now sign in."
	msgRegistered         = "Your account has been created. Check your email to activate it."
	msgEmailTaken         = "An account with this email already exists."
	msgNickTaken          = "This nick is already taken."
	msgNickRequired       = "A nick with at least one letter or digit is required."
	msgDomainNotAllowed   = "Registrations from this email domain are not allowed."
)

func passwordLockedMessage(wait time.Duration) string {
	m, s := SplitWait(wait)
	return fmt.Sprintf("Your account is locked after too many failed attempts. Wait %d minutes and %d seconds before trying again.", m, s)
}

func passwordLockedNowMessage(wait time.Duration) string {
	m, s := SplitWait(wait)
	return fmt.Sprintf("Invalid credentials. Your account has been locked after too many attempts. Wait %d minutes and %d seconds.", m, s)
}

func mfaLockedMessage(wait time.Duration) string {
	m, s := SplitWait(wait)
	return fmt.Sprintf("Code verification is temporarily locked. Wait %d minutes and %d seconds before trying again.", m, s)
}

func codeEmail(code string, ttl time.Duration) (subject, body string) {
	return "Login verification code", fmt.Sprintf(
		"Your login verification code is: %s\nIt expires in %d minutes.", code, int(ttl/time.Minute))
}

func welcomeEmail(nick, link string, ttl time.Duration) (subject, body string) {
	return "Activate your account", fmt.Sprintf(
		"Welcome, %s!\n\nFollow this link to activate your account:\n%s\n\nThe link expires in %d hours.",
		nick, link, int(ttl/time.Hour))
}

func activationEmail(link string) (subject, body string) {
	return "New activation link", fmt.Sprintf(
		"You requested a new activation link.\n\nFollow it here: %s", link)
}

func resetEmail(nick, link string, ttl time.Duration) (subject, body string) {
	return "Reset your password", fmt.Sprintf(
		"Hello %s,\n\nFollow this link to reset your password:\n%s\n\nThe link expires in %d hours.",
		nick, link, int(ttl/time.Hour))
}
