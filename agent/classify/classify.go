package classify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const defaultBaseURL = "https://detect.roboflow.com"

// Client runs hosted Roboflow inference over single video frames.
type Client struct {
	apiKey  string
	modelID string
	baseURL string

	httpClient *http.Client
}

type ClientOption func(*Client)

// WithBaseURL points the client at a different inference host.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func NewClient(apiKey string, modelID string, opts ...ClientOption) *Client {
	client := &Client{
		apiKey:  apiKey,
		modelID: modelID,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Prediction is a single detection returned by the model.
type Prediction struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// Result is the model output for one frame.
type Result struct {
	Predictions []Prediction `json:"predictions"`
}

// Top returns the highest-confidence prediction, false when the frame
// produced none.
func (r *Result) Top() (Prediction, bool) {
	if r == nil || len(r.Predictions) == 0 {
		return Prediction{}, false
	}

	top := r.Predictions[0]
	for _, prediction := range r.Predictions[1:] {
		if prediction.Confidence > top.Confidence {
			top = prediction
		}
	}
	return top, true
}

// Infer classifies one encoded frame, sent base64-encoded the way the
// hosted detect API expects it.
func (c *Client) Infer(ctx context.Context, image []byte) (*Result, error) {
	ctx, span := tracer.Start(ctx, "classify frame")
	defer span.End()

	span.SetAttributes(attribute.String("request.model", c.modelID))

	endpoint := fmt.Sprintf("%s/%s?api_key=%s", c.baseURL, c.modelID, url.QueryEscape(c.apiKey))
	body := base64.StdEncoding.EncodeToString(image)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(body))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, err := io.ReadAll(resp.Body); err == nil {
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}

		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading response body: %w", err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}

	var result Result
	if err := json.Unmarshal(respBodyBytes, &result); err != nil {
		err = fmt.Errorf("error unmarshalling response: %w", err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}

	return &result, nil
}
