package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/compare"
	"github.com/sells-group/regdoc-cli/internal/model"
	"github.com/sells-group/regdoc-cli/internal/resilience"
)

const (
	mistralOCREndpoint  = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "mistral-ocr-latest"
)

// MistralOCR sends page images to the Mistral OCR API. The API reports no
// confidence, so the text quality score stands in for it.
type MistralOCR struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	retry    resilience.RetryConfig
	breaker  *resilience.CircuitBreaker
}

// NewMistralOCR creates a MistralOCR engine. If model is empty, the default is used.
func NewMistralOCR(apiKey, model string) *MistralOCR {
	if model == "" {
		model = defaultMistralModel
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger(EngineMistral, "ocr")
	return &MistralOCR{
		apiKey:   apiKey,
		model:    model,
		endpoint: mistralOCREndpoint,
		client:   &http.Client{Timeout: 2 * time.Minute},
		retry:    retry,
		breaker:  resilience.NewCircuitBreaker(EngineMistral, 5, 30*time.Second),
	}
}

type mistralOCRRequest struct {
	Model    string             `json:"model"`
	Document mistralOCRDocument `json:"document"`
}

type mistralOCRDocument struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
}

type mistralOCRResponse struct {
	Pages []mistralOCRPage `json:"pages"`
}

type mistralOCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// ExtractText uploads image as a data URL and joins the returned pages.
func (m *MistralOCR) ExtractText(ctx context.Context, image []byte) (Result, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return Result{}, err
	}
	if len(image) == 0 {
		return Result{}, eris.Wrap(model.ErrInvalidImage, "ocr: empty image")
	}

	body, err := json.Marshal(mistralOCRRequest{
		Model: m.model,
		Document: mistralOCRDocument{
			Type:     "image_url",
			ImageURL: "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image),
		},
	})
	if err != nil {
		return Result{}, eris.Wrap(err, "ocr: marshal mistral request")
	}

	var text string
	err = resilience.Do(ctx, m.retry, func(ctx context.Context) error {
		return m.breaker.Execute(ctx, func(ctx context.Context) error {
			var callErr error
			text, callErr = m.call(ctx, body)
			return callErr
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, model.ErrCancelled
		}
		return Result{}, eris.Wrapf(model.ErrExtractionFailed, "ocr: mistral: %v", err)
	}

	conf := float32(compare.QualityScore(text))
	zap.L().Debug("ocr: mistral done",
		zap.String("model", m.model),
		zap.Int("chars", len(text)),
		zap.Float32("confidence", conf),
	)
	return Result{Text: text, Confidence: conf, Engine: EngineMistral}, nil
}

func (m *MistralOCR) call(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "ocr: create mistral request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "ocr: mistral API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "ocr: read mistral response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("ocr: mistral API returned %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return "", resilience.NewTransientError(err, resp.StatusCode)
		}
		return "", err
	}

	var ocrResp mistralOCRResponse
	if err := json.Unmarshal(respBody, &ocrResp); err != nil {
		return "", eris.Wrap(err, "ocr: unmarshal mistral response")
	}

	pages := make([]string, 0, len(ocrResp.Pages))
	for _, p := range ocrResp.Pages {
		pages = append(pages, p.Markdown)
	}
	return strings.Join(pages, "\n\n"), nil
}
