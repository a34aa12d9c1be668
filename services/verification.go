package services

import (
	"context"
	"encoding/json"
	"strings"

	"attendance-backend/models"

	"gorm.io/datatypes"
)

// FactorResult is the outcome of one verification factor.
type FactorResult struct {
	Passed  bool   `json:"passed"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// VerificationReport is stored on the attendance log and echoed to the client.
type VerificationReport struct {
	QR   FactorResult `json:"qr"`
	Geo  FactorResult `json:"geo"`
	Face FactorResult `json:"face"`
}

func (r VerificationReport) JSON() datatypes.JSON {
	b, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// Verifier runs the QR, geo and face checks. All three always run.
type Verifier struct {
	QR   *QRService
	Face *FaceVerifier
}

func NewVerifier(qr *QRService, face *FaceVerifier) *Verifier {
	return &Verifier{QR: qr, Face: face}
}

// Evaluate returns the report, the looked-up token (zero when unknown) and
// the QR validation error, if any.
func (v *Verifier) Evaluate(ctx context.Context, user models.User, qrCode, geolocation string, faceImage []byte) (VerificationReport, models.QRCode, error) {
	var report VerificationReport

	token, qrErr := v.QR.Validate(qrCode)
	if qrErr != nil {
		report.QR = FactorResult{Reason: qrErr.Error()}
	} else {
		report.QR = FactorResult{Passed: true}
	}

	report.Geo = checkGeo(token.LocationConstraint, geolocation)

	switch {
	case v.Face != nil:
		report.Face = v.Face.Verify(ctx, user, faceImage)
	case len(faceImage) == 0:
		report.Face = FactorResult{Skipped: true, Reason: "no face image submitted"}
	default:
		report.Face = FactorResult{Reason: ErrFaceServiceUnavailable.Error()}
	}

	return report, token, qrErr
}

// checkGeo passes unconditionally when the token carries no geofence.
func checkGeo(constraint *string, geolocation string) FactorResult {
	geolocation = strings.TrimSpace(geolocation)
	if geolocation == "" {
		return FactorResult{Reason: ErrMissingLocation.Error()}
	}
	if constraint == nil || strings.TrimSpace(*constraint) == "" {
		return FactorResult{Passed: true}
	}

	lc, err := ParseLocationConstraint(*constraint)
	if err != nil {
		return FactorResult{Reason: err.Error()}
	}
	point, err := ParseCoordinates(geolocation)
	if err != nil {
		return FactorResult{Reason: err.Error()}
	}
	if !lc.Contains(point) {
		return FactorResult{Reason: "location outside allowed radius"}
	}
	return FactorResult{Passed: true}
}
