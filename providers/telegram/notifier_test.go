package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBotAPI(t *testing.T, sent *[]string, mutex *sync.Mutex) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		w.Header().Set("Content-Type", "application/json")
		switch method {
		case "getMe":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"backtester","username":"backtester_bot"}}`))
		case "getChat":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":42,"type":"private"}}`))
		case "sendMessage":
			var params map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&params)
			mutex.Lock()
			*sent = append(*sent, params["text"].(string))
			mutex.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`))
		default:
			t.Errorf("unexpected bot api call %s", method)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestNotify(t *testing.T) {
	var mutex sync.Mutex
	var sent []string
	server := fakeBotAPI(t, &sent, &mutex)
	defer server.Close()

	notifier := NewNotifier("123:token", "42").WithAPIURL(server.URL)
	require.NoError(t, notifier.Notify("Backtest finished: Maximum Draw-down: 4%"))
	require.NoError(t, notifier.Notify("second"))

	mutex.Lock()
	defer mutex.Unlock()
	assert.Equal(t, []string{"Backtest finished: Maximum Draw-down: 4%", "second"}, sent)
}

func TestNotifySetupError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	notifier := NewNotifier("bad", "42").WithAPIURL(server.URL)
	assert.Error(t, notifier.Notify("hello"))
	assert.Error(t, notifier.Notify("hello again"))
}
