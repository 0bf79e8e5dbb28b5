package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	commentDomain "github.com/davicafu/hexablog/internal/comment/domain"
	"github.com/davicafu/hexablog/pkg/middleware"
	"github.com/davicafu/hexablog/pkg/utils"
)

// PostsHTTPClient resuelve PostLookup contra GET {baseURL}/posts/:id.
type PostsHTTPClient struct {
	baseURL string
	client  *http.Client
}

var _ commentDomain.PostLookup = (*PostsHTTPClient)(nil)

func NewPostsHTTPClient(baseURL string, timeout time.Duration) *PostsHTTPClient {
	return &PostsHTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// GetPost sólo distingue 200 y el 404 del propio servicio de posts; cualquier otra
// respuesta o error de red es ErrUpstreamUnavailable.
func (c *PostsHTTPClient) GetPost(ctx context.Context, id string) (*commentDomain.PostRef, error) {
	if id == "" {
		return nil, commentDomain.ErrPostNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/posts/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", commentDomain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if cid := middleware.CorrelationIDFromContext(ctx); cid != "" {
		req.Header.Set(middleware.CorrelationIDHeader, cid)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", commentDomain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var post commentDomain.PostRef
		if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
			return nil, fmt.Errorf("%w: decode post: %w", commentDomain.ErrUpstreamUnavailable, err)
		}
		return &post, nil
	case http.StatusNotFound:
		if isPostNotFoundBody(resp) {
			return nil, commentDomain.ErrPostNotFound
		}
		// Un 404 sin el cuerpo del servicio suele venir de un proxy o de una ruta mal configurada.
		return nil, fmt.Errorf("%w: unexpected 404 from %s", commentDomain.ErrUpstreamUnavailable, c.baseURL)
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", commentDomain.ErrUpstreamUnavailable, resp.StatusCode)
	}
}

func isPostNotFoundBody(resp *http.Response) bool {
	var body struct {
		Error utils.ErrorResponse `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	return body.Error.Message == commentDomain.ErrPostNotFound.Error()
}
