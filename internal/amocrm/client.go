package amocrm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Lead pipeline statuses AmoCRM assigns to closed deals.
const (
	WonStatusID  = 142
	LostStatusID = 143
)

const pageLimit = 250

// Client talks to one tenant's AmoCRM API with a bearer token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseDomain, accessToken string) *Client {
	return &Client{
		BaseURL: "https://" + baseDomain,
		Token:   accessToken,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	u := c.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("amocrm GET %s failed: %w", path, err)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) (int, error) {
	resp, err := c.get(ctx, path, params)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode amocrm response: %w", err)
	}
	return resp.StatusCode, nil
}

// User is an AmoCRM account user.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type usersPage struct {
	Embedded struct {
		Users []struct {
			ID    int64           `json:"id"`
			Name  string          `json:"name"`
			Email json.RawMessage `json:"email"`
		} `json:"users"`
	} `json:"_embedded"`
}

// FetchUsers pulls the full account user list, paginated.
func (c *Client) FetchUsers(ctx context.Context) (map[int64]User, error) {
	out := make(map[int64]User)
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("limit", strconv.Itoa(pageLimit))

		var body usersPage
		status, err := c.getJSON(ctx, "/api/v4/users", params, &body)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			break
		}
		for _, u := range body.Embedded.Users {
			name := u.Name
			if name == "" {
				name = fmt.Sprintf("User %d", u.ID)
			}
			// The email field is occasionally a non-string value.
			var email string
			_ = json.Unmarshal(u.Email, &email)
			out[u.ID] = User{ID: u.ID, Name: name, Email: email}
		}
		if len(body.Embedded.Users) < pageLimit {
			break
		}
	}
	return out, nil
}

// Lead is the subset of lead fields the aggregation needs.
type Lead struct {
	ID                int64 `json:"id"`
	ResponsibleUserID int64 `json:"responsible_user_id"`
	StatusID          int64 `json:"status_id"`
	Price             int64 `json:"price"`
	CreatedAt         int64 `json:"created_at"`
	ClosedAt          int64 `json:"closed_at"`
}

type leadsPage struct {
	Embedded struct {
		Leads []Lead `json:"leads"`
	} `json:"_embedded"`
}

func (c *Client) iterLeads(ctx context.Context, field string, tsFrom, tsTo int64, fn func(Lead)) error {
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("limit", strconv.Itoa(pageLimit))
		params.Set(fmt.Sprintf("filter[%s][from]", field), strconv.FormatInt(tsFrom, 10))
		params.Set(fmt.Sprintf("filter[%s][to]", field), strconv.FormatInt(tsTo, 10))
		params.Set(fmt.Sprintf("order[%s]", field), "desc")

		var body leadsPage
		status, err := c.getJSON(ctx, "/api/v4/leads", params, &body)
		if err != nil {
			return err
		}
		if status != http.StatusOK || len(body.Embedded.Leads) == 0 {
			return nil
		}
		for _, lead := range body.Embedded.Leads {
			fn(lead)
		}
		if len(body.Embedded.Leads) < pageLimit {
			return nil
		}
	}
}

// EachCreatedLead walks leads created inside [tsFrom, tsTo].
func (c *Client) EachCreatedLead(ctx context.Context, tsFrom, tsTo int64, fn func(Lead)) error {
	return c.iterLeads(ctx, "created_at", tsFrom, tsTo, fn)
}

// EachClosedLead walks leads closed inside [tsFrom, tsTo].
func (c *Client) EachClosedLead(ctx context.Context, tsFrom, tsTo int64, fn func(Lead)) error {
	return c.iterLeads(ctx, "closed_at", tsFrom, tsTo, fn)
}

// LeadsByResponsible is a single-page lead fetch filtered by the
// responsible user, used by the personal stat sync.
func (c *Client) LeadsByResponsible(ctx context.Context, field string, tsFrom, responsibleID int64) ([]Lead, error) {
	params := url.Values{}
	params.Set(fmt.Sprintf("filter[%s][from]", field), strconv.FormatInt(tsFrom, 10))
	params.Set("filter[responsible_user_id]", strconv.FormatInt(responsibleID, 10))
	params.Set("limit", strconv.Itoa(pageLimit))

	var body leadsPage
	status, err := c.getJSON(ctx, "/api/v4/leads", params, &body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, nil
	}
	return body.Embedded.Leads, nil
}

// Event is a timeline event. value_after arrives either as an object or as
// a one-element array of objects depending on the event source.
type Event struct {
	CreatedBy  int64           `json:"created_by"`
	ValueAfter json.RawMessage `json:"value_after"`
}

// EventNote is the note attached to a call event. Telephony integrations
// such as SIPUNI report calls as notes, so ownership and duration live here.
type EventNote struct {
	ResponsibleUserID int64      `json:"responsible_user_id"`
	NoteType          FlexString `json:"note_type"`
	Params            struct {
		Duration FlexInt `json:"duration"`
	} `json:"params"`
}

// Note types that represent phone calls. Telephony vendors report either
// the named types or the legacy numeric codes 10 through 13.
var callNoteTypes = map[string]bool{
	"call_in":  true,
	"call_out": true,
	"10":       true,
	"11":       true,
	"12":       true,
	"13":       true,
}

// IsCall reports whether the note is a phone call rather than an SMS or a
// plain comment.
func (n EventNote) IsCall() bool {
	return callNoteTypes[string(n.NoteType)]
}

// Note reports whether a note payload is present on the event and returns it.
func (e Event) Note() (EventNote, bool) {
	if len(e.ValueAfter) == 0 {
		return EventNote{}, false
	}

	var wrapper struct {
		Note *EventNote `json:"note"`
	}
	// Try the object shape first, then the array shape.
	if err := json.Unmarshal(e.ValueAfter, &wrapper); err != nil {
		var list []struct {
			Note *EventNote `json:"note"`
		}
		if err := json.Unmarshal(e.ValueAfter, &list); err != nil || len(list) == 0 {
			return EventNote{}, false
		}
		wrapper.Note = list[0].Note
	}
	if wrapper.Note == nil {
		return EventNote{}, false
	}
	return *wrapper.Note, true
}

type eventsPage struct {
	Embedded struct {
		Events []Event `json:"events"`
	} `json:"_embedded"`
}

// FetchEvents pulls one page of timeline events created after tsFrom.
func (c *Client) FetchEvents(ctx context.Context, tsFrom int64, limit int) ([]Event, error) {
	params := url.Values{}
	params.Set("filter[created_at][from]", strconv.FormatInt(tsFrom, 10))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("with", "note")

	var body eventsPage
	status, err := c.getJSON(ctx, "/api/v4/events", params, &body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("amocrm events fetch returned %d", status)
	}
	return body.Embedded.Events, nil
}

// InspectEntity dumps the raw calls, notes and timeline events bound to one
// lead or contact. Debug aid for figuring out where a telephony vendor
// hides call data.
func (c *Client) InspectEntity(ctx context.Context, entityType, entityID string) (map[string]any, error) {
	report := map[string]any{
		"target":         fmt.Sprintf("%s #%s", entityType, entityID),
		"raw_calls_api":  []any{},
		"raw_notes_api":  []any{},
		"raw_events_api": []any{},
	}

	callParams := url.Values{}
	callParams.Set("filter[entity_id]", entityID)
	callParams.Set("filter[entity_type]", entityType)
	callParams.Set("with", "duration")
	var calls map[string]any
	if status, err := c.getJSON(ctx, "/api/v4/calls", callParams, &calls); err != nil {
		return nil, err
	} else if status == http.StatusOK {
		report["raw_calls_api"] = embeddedList(calls, "calls")
	}

	noteParams := url.Values{}
	noteParams.Set("limit", "50")
	noteParams.Set("order[created_at]", "desc")
	var notes map[string]any
	path := fmt.Sprintf("/api/v4/%s/%s/notes", entityType, entityID)
	if status, err := c.getJSON(ctx, path, noteParams, &notes); err != nil {
		return nil, err
	} else if status == http.StatusOK {
		report["raw_notes_api"] = embeddedList(notes, "notes")
	}

	eventParams := url.Values{}
	eventParams.Set("filter[entity_id]", entityID)
	eventParams.Set("filter[entity_type]", entityType)
	eventParams.Set("limit", "50")
	eventParams.Set("order[created_at]", "desc")
	var events map[string]any
	if status, err := c.getJSON(ctx, "/api/v4/events", eventParams, &events); err != nil {
		return nil, err
	} else if status == http.StatusOK {
		report["raw_events_api"] = embeddedList(events, "events")
	}

	return report, nil
}

func embeddedList(body map[string]any, key string) any {
	embedded, ok := body["_embedded"].(map[string]any)
	if !ok {
		return []any{}
	}
	if list, ok := embedded[key]; ok {
		return list
	}
	return []any{}
}
