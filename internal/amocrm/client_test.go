package amocrm_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesjourney/backend/internal/amocrm"
)

func TestFetchUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v4/users", r.URL.Path)
		require.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"_embedded":{"users":[
			{"id":1,"name":"Anna","email":"anna@example.com"},
			{"id":2,"name":"","email":false}
		]}}`)
	}))
	defer srv.Close()

	client := &amocrm.Client{BaseURL: srv.URL, Token: "token", HTTP: srv.Client()}
	users, err := client.FetchUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "Anna", users[1].Name)
	assert.Equal(t, "anna@example.com", users[1].Email)
	assert.Equal(t, "User 2", users[2].Name, "nameless users get a placeholder")
	assert.Empty(t, users[2].Email, "non-string email is ignored")
}

func TestFetchUsersNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := &amocrm.Client{BaseURL: srv.URL, Token: "token", HTTP: srv.Client()}
	users, err := client.FetchUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestEventNoteObjectShape(t *testing.T) {
	var event amocrm.Event
	err := json.Unmarshal([]byte(`{
		"created_by": 7,
		"value_after": {"note":{"responsible_user_id":42,"note_type":"call_in","params":{"duration":95}}}
	}`), &event)
	require.NoError(t, err)

	note, ok := event.Note()
	require.True(t, ok)
	assert.Equal(t, int64(42), note.ResponsibleUserID)
	assert.Equal(t, amocrm.FlexString("call_in"), note.NoteType)
	assert.Equal(t, amocrm.FlexInt(95), note.Params.Duration)
}

func TestEventNoteArrayShape(t *testing.T) {
	var event amocrm.Event
	err := json.Unmarshal([]byte(`{
		"created_by": 7,
		"value_after": [{"note":{"responsible_user_id":42,"note_type":10,"params":{"duration":"181"}}}]
	}`), &event)
	require.NoError(t, err)

	note, ok := event.Note()
	require.True(t, ok)
	assert.Equal(t, int64(42), note.ResponsibleUserID)
	assert.Equal(t, amocrm.FlexString("10"), note.NoteType)
	assert.Equal(t, amocrm.FlexInt(181), note.Params.Duration)
}

func TestEventNoteMissing(t *testing.T) {
	var event amocrm.Event
	require.NoError(t, json.Unmarshal([]byte(`{"created_by":7}`), &event))
	_, ok := event.Note()
	assert.False(t, ok)

	require.NoError(t, json.Unmarshal([]byte(`{"created_by":7,"value_after":{}}`), &event))
	_, ok = event.Note()
	assert.False(t, ok)

	require.NoError(t, json.Unmarshal([]byte(`{"created_by":7,"value_after":[]}`), &event))
	_, ok = event.Note()
	assert.False(t, ok)
}

func TestEventNoteIsCall(t *testing.T) {
	for _, callType := range []string{"call_in", "call_out", "10", "11", "12", "13"} {
		note := amocrm.EventNote{NoteType: amocrm.FlexString(callType)}
		assert.True(t, note.IsCall(), callType)
	}

	// SMS and plain comments carry a note too but are not phone calls.
	for _, otherType := range []string{"common", "sms_in", "sms_out", "4", ""} {
		note := amocrm.EventNote{NoteType: amocrm.FlexString(otherType)}
		assert.False(t, note.IsCall(), otherType)
	}
}

func TestFlexInt(t *testing.T) {
	var v struct {
		D amocrm.FlexInt `json:"d"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"d":95}`), &v))
	assert.Equal(t, amocrm.FlexInt(95), v.D)

	require.NoError(t, json.Unmarshal([]byte(`{"d":"181"}`), &v))
	assert.Equal(t, amocrm.FlexInt(181), v.D)

	require.NoError(t, json.Unmarshal([]byte(`{"d":"12.7"}`), &v))
	assert.Equal(t, amocrm.FlexInt(12), v.D)

	require.NoError(t, json.Unmarshal([]byte(`{"d":null}`), &v))
	assert.Equal(t, amocrm.FlexInt(0), v.D)

	require.NoError(t, json.Unmarshal([]byte(`{"d":"n/a"}`), &v))
	assert.Equal(t, amocrm.FlexInt(0), v.D)
}

func TestFlexString(t *testing.T) {
	var v struct {
		S amocrm.FlexString `json:"s"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"s":"call_in"}`), &v))
	assert.Equal(t, amocrm.FlexString("call_in"), v.S)

	require.NoError(t, json.Unmarshal([]byte(`{"s":10}`), &v))
	assert.Equal(t, amocrm.FlexString("10"), v.S)

	require.NoError(t, json.Unmarshal([]byte(`{"s":null}`), &v))
	assert.Equal(t, amocrm.FlexString(""), v.S)
}
