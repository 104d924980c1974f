package pumpfun

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpfun-radar/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type fixedPrice struct {
	price *float64
}

func (p fixedPrice) SolToUSD(ctx context.Context, sol float64) *float64 {
	if p.price == nil {
		return nil
	}
	v := sol * *p.price
	return &v
}

func TestParseFrame(t *testing.T) {
	f, err := parseFrame([]byte(`{"txType":"migration","mint":"Mint111","signature":"sig1","name":"Alpha","symbol":"ALF","pool":"pool1","marketCapSol":410.5,"creator":"Dev111"}`))
	require.NoError(t, err)
	assert.Equal(t, "migration", f.TxType)
	assert.Equal(t, "Mint111", f.Mint)
	require.NotNil(t, f.MarketCapSol)
	assert.InDelta(t, 410.5, *f.MarketCapSol, 1e-9)

	f, err = parseFrame([]byte(`{"txType":"buy","mint":"Mint111","traderPublicKey":"w1","solAmount":0.4,"tokenAmount":120000}`))
	require.NoError(t, err)
	assert.Equal(t, "buy", f.TxType)
	assert.Equal(t, "w1", f.TraderPublicKey)

	_, err = parseFrame([]byte(`{"message":"Successfully subscribed"}`))
	assert.Error(t, err)

	_, err = parseFrame([]byte(`not json`))
	assert.Error(t, err)
}

func TestReconnectDelaySchedule(t *testing.T) {
	base := 5 * time.Second
	assert.Equal(t, 5*time.Second, reconnectDelay(base, 0))
	assert.Equal(t, 5*time.Second, reconnectDelay(base, 1))
	assert.Equal(t, 15*time.Second, reconnectDelay(base, 3))
	assert.Equal(t, 25*time.Second, reconnectDelay(base, 5))
	assert.Equal(t, 25*time.Second, reconnectDelay(base, 9))
}

func TestHandleMessageMigrationConvertsMarketCap(t *testing.T) {
	price := 200.0
	s := NewSource("ws://unused", nil, fixedPrice{price: &price}, nil)

	var mu sync.Mutex
	var got []domain.MigrationEvent
	s.OnMigration(func(ev domain.MigrationEvent) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})

	s.handleMessage([]byte(`{"txType":"migration","mint":"Mint111","signature":"sig1","marketCapSol":2.5}`))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	require.NotNil(t, got[0].MarketCap)
	assert.InDelta(t, 500.0, *got[0].MarketCap, 1e-9)
	assert.NotZero(t, got[0].Timestamp)
}

func TestHandleMessageMigrationUnknownPriceLeavesMarketCapUnset(t *testing.T) {
	s := NewSource("ws://unused", nil, fixedPrice{}, nil)

	var mu sync.Mutex
	var got []domain.MigrationEvent
	s.OnMigration(func(ev domain.MigrationEvent) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})

	s.handleMessage([]byte(`{"txType":"migration","mint":"Mint111","marketCapSol":2.5}`))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Nil(t, got[0].MarketCap)
}

func TestHandleMessageIgnoresMintlessMigration(t *testing.T) {
	s := NewSource("ws://unused", nil, nil, nil)
	called := false
	s.OnMigration(func(domain.MigrationEvent) { called = true })

	s.handleMessage([]byte(`{"txType":"migration","signature":"sig1"}`))
	assert.False(t, called)
}

func TestListenerPanicDoesNotStopDispatch(t *testing.T) {
	s := NewSource("ws://unused", nil, nil, nil)

	var mu sync.Mutex
	secondCalled := false
	s.OnMigration(func(domain.MigrationEvent) { panic("listener bug") })
	s.OnMigration(func(domain.MigrationEvent) {
		mu.Lock()
		secondCalled = true
		mu.Unlock()
	})

	s.handleMessage([]byte(`{"txType":"migration","mint":"Mint111"}`))

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, secondCalled)
}

func TestTradeFramesDispatchToTradeListeners(t *testing.T) {
	s := NewSource("ws://unused", nil, nil, nil)

	var mu sync.Mutex
	var got []domain.TradeEvent
	s.OnTrade(func(ev domain.TradeEvent) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})

	s.handleMessage([]byte(`{"txType":"buy","mint":"Mint111","traderPublicKey":"w1","solAmount":0.4}`))
	s.handleMessage([]byte(`{"txType":"sell","mint":"Mint111","traderPublicKey":"w2","solAmount":1.1}`))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "buy", got[0].Type)
	assert.Equal(t, "sell", got[1].Type)
	assert.InDelta(t, 1.1, got[1].SolAmt, 1e-9)
}

func TestSourceSubscribesAndReceives(t *testing.T) {
	frames := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// First message must be the subscription frame.
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub map[string]interface{}
		if err := json.Unmarshal(msg, &sub); err != nil {
			t.Errorf("unmarshal subscribe: %v", err)
			return
		}
		if sub["method"] != "subscribeMigration" {
			t.Errorf("expected subscribeMigration, got %v", sub["method"])
			return
		}

		for f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Keep the connection open until the client leaves.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	s := NewSource(wsURL, nil, nil, nil)
	received := make(chan domain.MigrationEvent, 1)
	s.OnMigration(func(ev domain.MigrationEvent) { received <- ev })
	s.Start()
	defer s.Close()

	frames <- `{"txType":"migration","mint":"Mint111","signature":"sig1","name":"Alpha"}`
	close(frames)

	select {
	case ev := <-received:
		assert.Equal(t, "Mint111", ev.Mint)
		assert.Equal(t, "Alpha", ev.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for migration event")
	}
}

func TestStatusListenersObserveDrops(t *testing.T) {
	// The server hangs up right after the subscribe frame, so every
	// connection yields one connect and one drop.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.ReadMessage()
		conn.Close()
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	cfg := DefaultSourceConfig()
	cfg.ReconnectDelay = 50 * time.Millisecond

	s := NewSource(wsURL, &cfg, nil, nil)
	statuses := make(chan bool, 4)
	s.OnStatus(func(connected bool) {
		select {
		case statuses <- connected:
		default:
		}
	})
	s.Start()
	defer s.Close()

	next := func() bool {
		select {
		case connected := <-statuses:
			return connected
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for status transition")
			return false
		}
	}
	assert.True(t, next())
	assert.False(t, next())
}
