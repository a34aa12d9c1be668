package services

import "errors"

// QR token
var (
	ErrInvalidQRCode = errors.New("invalid_qr_code")
	ErrQRNotFound    = errors.New("qr_code_not_found")
	ErrQRExpired     = errors.New("qr_code_expired")
	ErrQRInactive    = errors.New("qr_code_inactive")
)

// attendance
var (
	ErrMissingLocation           = errors.New("geolocation_required")
	ErrNoCheckInFound            = errors.New("no_check_in_found")
	ErrRecordNotFound            = errors.New("attendance_record_not_found")
	ErrInvalidStatus             = errors.New("invalid_status")
	ErrInvalidDate               = errors.New("invalid_date")
	ErrInvalidDateRange          = errors.New("invalid_date_range")
	ErrInvalidLocationConstraint = errors.New("invalid_location_constraint")
	ErrInvalidCoordinates        = errors.New("invalid_coordinates")
	ErrForbidden                 = errors.New("forbidden")
)

// face matching
var (
	ErrFaceServiceUnavailable = errors.New("face_service_unavailable")
	ErrNoFaceDetected         = errors.New("no_face_detected")
	ErrNoReferenceImage       = errors.New("no_reference_image")
)

// users
var (
	ErrUserNotFound       = errors.New("user_not_found")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUsernameTaken      = errors.New("username_taken")
	ErrInvalidUserInput   = errors.New("invalid_user_input")
	ErrInvalidToken       = errors.New("invalid_token")
)
