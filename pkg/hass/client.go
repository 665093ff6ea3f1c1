// Package hass is a client for the Home Assistant REST API, shaped for
// use by a conversational agent: every operation narrates its progress
// through an EventSink so the host can render what is happening while
// the call runs, and discovery results are cached by domain so the host
// can inspect what the agent last saw.
package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// Config holds the hub connection settings. Immutable after New.
type Config struct {
	// BaseURL is the hub root, e.g. http://homeassistant.local:8123.
	BaseURL string
	// Token is a long-lived access token presented as a bearer token.
	Token string
}

// Entity is one controllable or observable object in the hub.
type Entity struct {
	EntityID     string `json:"entity_id"`
	FriendlyName string `json:"friendly_name"`
	Domain       string `json:"domain"`
}

// EntityState is the current state of a single entity.
type EntityState struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// ServiceResult summarizes one service call against the hub. It is
// well-formed even when the hub rejects the call; Success is true only
// for an exact 200 reply.
type ServiceResult struct {
	Success    bool           `json:"success"`
	StatusCode int            `json:"status_code"`
	Entity     string         `json:"entity"`
	Domain     string         `json:"domain"`
	Service    string         `json:"service"`
	RequestURL string         `json:"request_url"`
	Payload    map[string]any `json:"request_payload"`
	Response   string         `json:"response"`
}

// Client issues requests against one Home Assistant hub. Operations may
// be invoked concurrently; the entity cache is guarded, everything else
// is read-only after construction.
type Client struct {
	cfg   Config
	http  *http.Client
	sink  EventSink
	cache *entityCache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client with a discarding sink and an empty cache.
func New(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	c := &Client{
		cfg:   cfg,
		http:  &http.Client{},
		sink:  NopSink{},
		cache: newEntityCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSink returns a client narrating to sink. The derived client shares
// the receiver's cache and HTTP client, so one base client can serve many
// concurrent tool calls, each with its own sink.
func (c *Client) WithSink(sink EventSink) *Client {
	derived := *c
	derived.sink = sink
	return &derived
}

// CachedEntities returns a snapshot of the last-seen entities by domain.
func (c *Client) CachedEntities() map[string][]Entity {
	return c.cache.snapshot()
}

// hub state object as returned by /api/states.
type stateObject struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// serviceDomain is one record of the /api/services reply.
type serviceDomain struct {
	Domain   string                     `json:"domain"`
	Services map[string]json.RawMessage `json:"services"`
}

// ListEntitiesByDomain retrieves all hub entities whose entity_id starts
// with "{domain}." and caches them under that domain, overwriting any
// prior entry. A markdown table of the discovered entities is emitted
// for the host to reason over.
func (c *Client) ListEntitiesByDomain(ctx context.Context, domain string) ([]Entity, error) {
	if err := c.emit(ctx, Status(fmt.Sprintf("Querying entities in domain '%s'", domain), false)); err != nil {
		return nil, err
	}

	states, err := c.fetchStates(ctx)
	if err != nil {
		return nil, c.fail(ctx, err)
	}

	entities := make([]Entity, 0)
	prefix := domain + "."
	for _, s := range states {
		if !strings.HasPrefix(s.EntityID, prefix) {
			continue
		}
		entities = append(entities, projectEntity(s))
	}
	c.cache.storeDomain(domain, entities)

	table := entityTable(fmt.Sprintf("**Discovered entities in domain** `%s`:", domain), entities)
	if err := c.emit(ctx, Message(table)); err != nil {
		return nil, err
	}
	hint := "If you want to know the *current state* of one of these devices, " +
		"call `get_entity_state` with the correct `entity_id`."
	if err := c.emit(ctx, Message(hint)); err != nil {
		return nil, err
	}
	if err := c.emit(ctx, Status("Discovery complete", true)); err != nil {
		return nil, err
	}
	return entities, nil
}

// ListAllEntities retrieves every hub entity grouped by domain and
// replaces the entire cache with the freshly computed mapping. One
// markdown table per domain is emitted; group iteration order is not
// defined.
func (c *Client) ListAllEntities(ctx context.Context) (map[string][]Entity, error) {
	if err := c.emit(ctx, Status("Querying all entities", false)); err != nil {
		return nil, err
	}

	states, err := c.fetchStates(ctx)
	if err != nil {
		return nil, c.fail(ctx, err)
	}

	grouped := make(map[string][]Entity)
	for _, s := range states {
		e := projectEntity(s)
		grouped[e.Domain] = append(grouped[e.Domain], e)
	}
	c.cache.replaceAll(grouped)

	for domain, items := range grouped {
		table := entityTable(fmt.Sprintf("### Domain: `%s`", domain), items)
		if err := c.emit(ctx, Message(table)); err != nil {
			return nil, err
		}
	}
	if err := c.emit(ctx, Status("Full discovery complete", true)); err != nil {
		return nil, err
	}
	return grouped, nil
}

// InvokeService calls {domain}/{service} on one entity. The hub's reply
// is data, not an error: a non-200 status yields a result with
// Success=false and a nil error. Only transport and encoding failures
// return an error.
func (c *Client) InvokeService(ctx context.Context, entityID, domain, service string) (*ServiceResult, error) {
	start := fmt.Sprintf("Sending %s command to %s", service, entityID)
	payload := map[string]any{"entity_id": entityID}
	return c.callService(ctx, entityID, domain, service, payload, start, "Command complete")
}

// SetEntityAttribute calls {domain}/{service} with extra service data,
// e.g. brightness or temperature. data is merged into the payload next
// to the mandatory entity_id; a caller-supplied entity_id key wins.
func (c *Client) SetEntityAttribute(ctx context.Context, entityID, domain, service string, data map[string]any) (*ServiceResult, error) {
	payload := make(map[string]any, len(data)+1)
	payload["entity_id"] = entityID
	for k, v := range data {
		payload[k] = v
	}
	start := fmt.Sprintf("Sending `%s` with data to `%s`", service, entityID)
	return c.callService(ctx, entityID, domain, service, payload, start, "Attribute change complete")
}

func (c *Client) callService(ctx context.Context, entityID, domain, service string, payload map[string]any, startDesc, doneDesc string) (*ServiceResult, error) {
	if err := c.emit(ctx, Status(startDesc, false)); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/services/%s/%s", c.cfg.BaseURL, domain, service)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, c.fail(ctx, decodeError(err))
	}

	detail := fmt.Sprintf("**Request Details**\n- Endpoint: `%s`\n- Payload: ```json\n%s\n```", endpoint, body)
	if err := c.emit(ctx, Message(detail)); err != nil {
		return nil, err
	}

	code, respBody, reqErr := c.do(ctx, http.MethodPost, endpoint, body)
	if reqErr != nil {
		return nil, c.fail(ctx, reqErr)
	}

	detail = fmt.Sprintf("**Response Details**\n- Status: `%d`\n- Body: ```json\n%s\n```", code, respBody)
	if err := c.emit(ctx, Message(detail)); err != nil {
		return nil, err
	}
	if err := c.emit(ctx, Status(doneDesc, true)); err != nil {
		return nil, err
	}

	return &ServiceResult{
		Success:    code == http.StatusOK,
		StatusCode: code,
		Entity:     entityID,
		Domain:     domain,
		Service:    service,
		RequestURL: endpoint,
		Payload:    payload,
		Response:   string(respBody),
	}, nil
}

// ListServices retrieves the service names available for one domain. A
// domain the hub does not list is a valid empty result, not a failure.
func (c *Client) ListServices(ctx context.Context, domain string) ([]string, error) {
	if err := c.emit(ctx, Status(fmt.Sprintf("Fetching available services for domain '%s'", domain), false)); err != nil {
		return nil, err
	}

	code, body, err := c.do(ctx, http.MethodGet, c.cfg.BaseURL+"/api/services", nil)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	if code != http.StatusOK {
		return nil, c.fail(ctx, statusError(code, string(body)))
	}

	var all []serviceDomain
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, c.fail(ctx, decodeError(err))
	}

	// First record wins; the hub lists each domain at most once.
	var match *serviceDomain
	for i := range all {
		if all[i].Domain == domain {
			match = &all[i]
			break
		}
	}
	if match == nil {
		if err := c.emit(ctx, Message(fmt.Sprintf("No services found for domain `%s`", domain))); err != nil {
			return nil, err
		}
		return []string{}, nil
	}

	names := make([]string, 0, len(match.Services))
	for name := range match.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "**Available services for domain** `%s`:\n\n", domain)
	for _, name := range names {
		fmt.Fprintf(&b, "- `%s`\n", name)
	}
	if err := c.emit(ctx, Message(b.String())); err != nil {
		return nil, err
	}
	if err := c.emit(ctx, Status("Service list complete", true)); err != nil {
		return nil, err
	}
	return names, nil
}

// GetEntityState retrieves the current state and attributes of one
// entity. The entity id is embedded in the URL path verbatim; callers
// must not pass ids needing escaping.
func (c *Client) GetEntityState(ctx context.Context, entityID string) (EntityState, error) {
	if err := c.emit(ctx, Status(fmt.Sprintf("Querying current state of `%s`", entityID), false)); err != nil {
		return EntityState{}, err
	}

	code, body, err := c.do(ctx, http.MethodGet, c.cfg.BaseURL+"/api/states/"+entityID, nil)
	if err != nil {
		return EntityState{}, c.fail(ctx, err)
	}
	if code != http.StatusOK {
		return EntityState{}, c.fail(ctx, statusError(code, string(body)))
	}

	var st EntityState
	if err := json.Unmarshal(body, &st); err != nil {
		return EntityState{}, c.fail(ctx, decodeError(err))
	}
	if st.Attributes == nil {
		st.Attributes = map[string]any{}
	}

	keys := make([]string, 0, len(st.Attributes))
	for k := range st.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "**Current state for `%s`**: `%s`\n\n", entityID, st.State)
	b.WriteString("**Attributes:**\n\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- **%s**: `%v`\n", k, st.Attributes[k])
	}
	if err := c.emit(ctx, Message(b.String())); err != nil {
		return EntityState{}, err
	}
	if err := c.emit(ctx, Status("Attribute query complete", true)); err != nil {
		return EntityState{}, err
	}
	return st, nil
}

func (c *Client) fetchStates(ctx context.Context) ([]stateObject, error) {
	code, body, err := c.do(ctx, http.MethodGet, c.cfg.BaseURL+"/api/states", nil)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, statusError(code, string(body))
	}
	var states []stateObject
	if err := json.Unmarshal(body, &states); err != nil {
		return nil, decodeError(err)
	}
	return states, nil
}

// do performs exactly one request attempt. No retries, no timeout beyond
// the HTTP client's own.
func (c *Client) do(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewBuffer(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, transportError(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, transportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, transportError(err)
	}
	return resp.StatusCode, respBody, nil
}

// fail narrates a terminal error status and hands the error back. A sink
// failure takes precedence: a broken host channel aborts the operation.
func (c *Client) fail(ctx context.Context, opErr error) error {
	desc := fmt.Sprintf("Error: %v", opErr)
	if he, ok := AsError(opErr); ok && he.Kind == KindStatus {
		desc = fmt.Sprintf("Error: %d", he.StatusCode)
	}
	if err := c.emit(ctx, Status(desc, true)); err != nil {
		return err
	}
	return opErr
}

func (c *Client) emit(ctx context.Context, ev Event) error {
	if c.sink == nil {
		return nil
	}
	if err := c.sink.Emit(ctx, ev); err != nil {
		return fmt.Errorf("emit narration: %w", err)
	}
	return nil
}

func projectEntity(s stateObject) Entity {
	name := "unknown"
	if fn, ok := s.Attributes["friendly_name"].(string); ok {
		name = fn
	}
	domain, _, _ := strings.Cut(s.EntityID, ".")
	return Entity{EntityID: s.EntityID, FriendlyName: name, Domain: domain}
}

func entityTable(header string, entities []Entity) string {
	var b strings.Builder
	b.WriteString(header + "\n\n")
	b.WriteString("| Entity ID | Friendly Name |\n|-----------|----------------|\n")
	for _, e := range entities {
		fmt.Fprintf(&b, "| `%s` | %s |\n", e.EntityID, e.FriendlyName)
	}
	return b.String()
}
