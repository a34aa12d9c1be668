package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"attendance-backend/models"
)

const (
	DefaultFaceTolerance = 0.6
	DefaultFaceTimeout   = 5 * time.Second
)

// FaceComparison is what the matching service reports for a pair of images.
type FaceComparison struct {
	Distance       float64 `json:"distance"`
	ReferenceFaces int     `json:"reference_faces"`
	CapturedFaces  int     `json:"captured_faces"`
}

// FaceMatcher compares a stored reference face with a freshly captured one.
type FaceMatcher interface {
	Compare(ctx context.Context, reference, captured []byte, tolerance float64) (FaceComparison, error)
}

// faceServiceResponse is the envelope returned by the matching service.
type faceServiceResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// HTTPFaceMatcher calls a remote face-matching API.
type HTTPFaceMatcher struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewHTTPFaceMatcher(endpoint, apiKey string) *HTTPFaceMatcher {
	return &HTTPFaceMatcher{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{},
	}
}

func (m *HTTPFaceMatcher) Compare(ctx context.Context, reference, captured []byte, tolerance float64) (FaceComparison, error) {
	payload := map[string]interface{}{
		"reference_image": base64.StdEncoding.EncodeToString(reference),
		"captured_image":  base64.StdEncoding.EncodeToString(captured),
		"tolerance":       tolerance,
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(b))
	if err != nil {
		return FaceComparison{}, fmt.Errorf("cannot build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-face-key", m.APIKey)

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
			return FaceComparison{}, fmt.Errorf("%w: %v", ErrFaceServiceUnavailable, err)
		}
		return FaceComparison{}, fmt.Errorf("%w: request failed: %v", ErrFaceServiceUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 500 {
		return FaceComparison{}, fmt.Errorf("%w: HTTP %d", ErrFaceServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return FaceComparison{}, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var fr faceServiceResponse
	if err := json.Unmarshal(bodyBytes, &fr); err != nil {
		return FaceComparison{}, fmt.Errorf("JSON parse error: %w", err)
	}
	if fr.Status != "success" {
		return FaceComparison{}, fmt.Errorf("API status error: %s - %s", fr.Status, fr.Message)
	}

	var out FaceComparison
	if err := json.Unmarshal(fr.Data, &out); err != nil {
		return FaceComparison{}, fmt.Errorf("no comparison returned: %s", string(fr.Data))
	}
	return out, nil
}

// FaceVerifier decides the face factor for one attendance event.
type FaceVerifier struct {
	Matcher   FaceMatcher
	Images    *ImageStore
	Tolerance float64
	Timeout   time.Duration
}

func NewFaceVerifier(matcher FaceMatcher, images *ImageStore, tolerance float64, timeout time.Duration) *FaceVerifier {
	if tolerance <= 0 {
		tolerance = DefaultFaceTolerance
	}
	if timeout <= 0 {
		timeout = DefaultFaceTimeout
	}
	return &FaceVerifier{Matcher: matcher, Images: images, Tolerance: tolerance, Timeout: timeout}
}

// Verify never returns an error. An unreachable matcher is reported as a
// failed factor so check-in can still proceed.
func (v *FaceVerifier) Verify(ctx context.Context, user models.User, captured []byte) FactorResult {
	if len(captured) == 0 {
		faceChecks.WithLabelValues("skipped").Inc()
		return FactorResult{Skipped: true, Reason: "no face image submitted"}
	}
	if user.ProfilePicture == "" {
		faceChecks.WithLabelValues("failed").Inc()
		return FactorResult{Reason: ErrNoReferenceImage.Error()}
	}
	if v.Matcher == nil {
		faceChecks.WithLabelValues("unavailable").Inc()
		return FactorResult{Reason: ErrFaceServiceUnavailable.Error()}
	}

	var reference []byte
	var err error
	if v.Images != nil {
		reference, err = v.Images.Load(user.ProfilePicture)
	} else {
		err = errors.New("image store not configured")
	}
	if err != nil {
		log.Printf("⚠️ face check: cannot load reference image for user %d: %v", user.ID, err)
		faceChecks.WithLabelValues("failed").Inc()
		return FactorResult{Reason: ErrNoReferenceImage.Error()}
	}

	cctx, cancel := context.WithTimeout(ctx, v.Timeout)
	defer cancel()

	cmp, err := v.Matcher.Compare(cctx, reference, captured, v.Tolerance)
	if err != nil {
		if errors.Is(err, ErrFaceServiceUnavailable) || errors.Is(cctx.Err(), context.DeadlineExceeded) {
			log.Printf("⚠️ face service unavailable for user %d: %v", user.ID, err)
			faceChecks.WithLabelValues("unavailable").Inc()
			return FactorResult{Reason: ErrFaceServiceUnavailable.Error()}
		}
		log.Printf("❌ face comparison failed for user %d: %v", user.ID, err)
		faceChecks.WithLabelValues("failed").Inc()
		return FactorResult{Reason: err.Error()}
	}

	res := evaluateComparison(cmp, v.Tolerance)
	if res.Passed {
		faceChecks.WithLabelValues("passed").Inc()
	} else {
		faceChecks.WithLabelValues("failed").Inc()
	}
	return res
}

func evaluateComparison(cmp FaceComparison, tolerance float64) FactorResult {
	switch {
	case cmp.ReferenceFaces == 0:
		return FactorResult{Reason: "no face detected in reference image"}
	case cmp.ReferenceFaces > 1:
		return FactorResult{Reason: "multiple faces detected in reference image"}
	case cmp.CapturedFaces == 0:
		return FactorResult{Reason: ErrNoFaceDetected.Error()}
	case cmp.CapturedFaces > 1:
		return FactorResult{Reason: "multiple faces detected in captured image"}
	case cmp.Distance > tolerance:
		return FactorResult{Reason: fmt.Sprintf("face distance %.3f exceeds tolerance %.2f", cmp.Distance, tolerance)}
	}
	return FactorResult{Passed: true}
}
