package lambdatransport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/awmpietro/golang-execution-graph/internal/app"
	"github.com/awmpietro/golang-execution-graph/internal/render"
	"github.com/awmpietro/golang-execution-graph/internal/transport/renderdto"
)

type Handler struct {
	svc app.RenderService
}

func NewHandler(svc app.RenderService) *Handler {
	return &Handler{svc: svc}
}

// Render serves API Gateway v2 HTTP events. Paths ending in /dot answer with
// Graphviz source instead of JSON.
func (h *Handler) Render(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body, err := readBody(req)
	if err != nil {
		return jsonResp(http.StatusBadRequest, renderdto.ErrorResponse{Error: "invalid body", Details: err.Error()}), nil
	}

	var in renderdto.RenderRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return jsonResp(http.StatusBadRequest, renderdto.ErrorResponse{Error: "invalid json", Details: err.Error()}), nil
	}

	evs, err := in.DecodeEvents()
	if err != nil {
		return jsonResp(http.StatusBadRequest, renderdto.ErrorResponse{Error: "invalid events", Details: err.Error()}), nil
	}

	out, err := h.svc.Render(ctx, in.Definition, evs, in.Options())
	if err != nil {
		return jsonResp(http.StatusBadRequest, renderdto.ErrorResponse{Error: "render failed", Details: err.Error()}), nil
	}

	if strings.HasSuffix(req.RawPath, "/dot") {
		dot, err := render.DOT(out.Graph)
		if err != nil {
			return jsonResp(http.StatusInternalServerError, renderdto.ErrorResponse{Error: "render failed", Details: err.Error()}), nil
		}
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusOK,
			Headers:    map[string]string{"content-type": "text/vnd.graphviz; charset=utf-8"},
			Body:       dot,
		}, nil
	}
	return jsonResp(http.StatusOK, renderdto.NewRenderResponse(out)), nil
}

func readBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func jsonResp(status int, body any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(body)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"content-type":                "application/json",
			"access-control-allow-origin": "*",
		},
		Body: string(b),
	}
}
