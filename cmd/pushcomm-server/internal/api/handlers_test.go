package api

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/pushcomm"
	"github.com/coregx/pushcomm/adapters/memory"
	"github.com/coregx/pushcomm/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type keypair struct {
	id   model.Identity
	priv ed25519.PrivateKey
}

func newKeypair(t *testing.T, seed byte) keypair {
	t.Helper()
	priv := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize))
	id, err := model.IdentityFromBytes(priv.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	return keypair{id: id, priv: priv}
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	dir, err := pushcomm.NewDirectory(pushcomm.WithStore(store))
	require.NoError(t, err)
	router := NewRouter(NewHandler(dir, nil), NewSignatureVerifier(AuthConfig{}))
	return &testServer{t: t, router: router, store: store}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signedHeaders are the authentication headers of one signed request.
type signedHeaders struct {
	signer, signature, timestamp, nonce string
}

func signHeaders(kp keypair, path string, raw []byte, ts time.Time, nonce string) signedHeaders {
	msg := SigningMessage(http.MethodPost, "/api/v1"+path, ts.Unix(), nonce, raw)
	return signedHeaders{
		signer:    kp.id.String(),
		signature: base58.Encode(ed25519.Sign(kp.priv, msg)),
		timestamp: strconv.FormatInt(ts.Unix(), 10),
		nonce:     nonce,
	}
}

func (s *testServer) post(path string, raw []byte, h signedHeaders) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1"+path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSigner, h.signer)
	req.Header.Set(HeaderSignature, h.signature)
	req.Header.Set(HeaderTimestamp, h.timestamp)
	req.Header.Set(HeaderNonce, h.nonce)
	return s.do(req)
}

func mustJSON(t *testing.T, body interface{}) []byte {
	t.Helper()
	if body == nil {
		return []byte{}
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return raw
}

func (s *testServer) signed(kp keypair, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	raw := mustJSON(s.t, body)
	return s.post(path, raw, signHeaders(kp, path, raw, time.Now(), uuid.NewString()))
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, "/api/v1"+path, nil))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Code
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func (s *testServer) initialize(admin keypair) {
	s.t.Helper()
	w := s.signed(admin, "/initialize", gin.H{"admin": admin.id, "chainId": 1})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestSignatureAuth(t *testing.T) {
	s := newTestServer(t)
	admin := newKeypair(t, 1)
	other := newKeypair(t, 2)
	raw := []byte(`{"chainId":1}`)

	t.Run("missing headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/initialize", bytes.NewReader([]byte(`{}`)))
		w := s.do(req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, errCodeUnauthenticated, errorCode(t, w))
	})

	t.Run("signature from another key", func(t *testing.T) {
		h := signHeaders(other, "/initialize", raw, time.Now(), uuid.NewString())
		h.signer = admin.id.String()
		assert.Equal(t, http.StatusUnauthorized, s.post("/initialize", raw, h).Code)
	})

	t.Run("body altered after signing", func(t *testing.T) {
		h := signHeaders(admin, "/initialize", raw, time.Now(), uuid.NewString())
		assert.Equal(t, http.StatusUnauthorized, s.post("/initialize", []byte(`{"chainId":2}`), h).Code)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		h := signHeaders(admin, "/initialize", raw, time.Now().Add(-time.Hour), uuid.NewString())
		assert.Equal(t, http.StatusUnauthorized, s.post("/initialize", raw, h).Code)
	})

	t.Run("timestamp from the future", func(t *testing.T) {
		h := signHeaders(admin, "/initialize", raw, time.Now().Add(time.Hour), uuid.NewString())
		assert.Equal(t, http.StatusUnauthorized, s.post("/initialize", raw, h).Code)
	})

	t.Run("short nonce", func(t *testing.T) {
		h := signHeaders(admin, "/initialize", raw, time.Now(), "abc")
		assert.Equal(t, http.StatusUnauthorized, s.post("/initialize", raw, h).Code)
	})

	assert.Equal(t, 0, s.store.Commits())
}

func TestSignatureAuth_ReplayAcrossRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := newKeypair(t, 1)
	user := newKeypair(t, 2)
	channel := newKeypair(t, 3)
	s.initialize(admin)

	raw := mustJSON(t, ChannelRequest{Channel: channel.id})
	subscribe := signHeaders(user, "/subscribe", raw, time.Now(), uuid.NewString())
	require.Equal(t, http.StatusCreated, s.post("/subscribe", raw, subscribe).Code)

	commits := s.store.Commits()

	w := s.post("/unsubscribe", raw, subscribe)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errCodeUnauthenticated, errorCode(t, w))

	// Same route, same headers.
	assert.Equal(t, http.StatusUnauthorized, s.post("/subscribe", raw, subscribe).Code)
	assert.Equal(t, commits, s.store.Commits())

	pause := signHeaders(admin, "/admin/pause", []byte{}, time.Now(), uuid.NewString())
	require.Equal(t, http.StatusOK, s.post("/admin/pause", []byte{}, pause).Code)
	commits = s.store.Commits()

	assert.Equal(t, http.StatusUnauthorized, s.post("/admin/unpause", []byte{}, pause).Code)
	assert.Equal(t, commits, s.store.Commits())

	var reg model.Registry
	decodeData(t, s.get("/registry"), &reg)
	assert.True(t, reg.Paused)

	var sub model.Subscription
	decodeData(t, s.get("/subscriptions/"+user.id.String()+"/"+channel.id.String()), &sub)
	assert.Equal(t, channel.id, sub.Channel)
}

func TestSignatureVerifier_NonceWindow(t *testing.T) {
	signedAt := time.Unix(1700000000, 0)
	now := signedAt
	v := NewSignatureVerifier(AuthConfig{
		MaxClockSkew: time.Minute,
		Now:          func() time.Time { return now },
	})
	kp := newKeypair(t, 4)
	body := []byte(`{}`)

	req := func(nonce string) signedRequest {
		h := signHeaders(kp, "/subscribe", body, signedAt, nonce)
		return signedRequest{
			method:     http.MethodPost,
			requestURI: "/api/v1/subscribe",
			signer:     h.signer,
			signature:  h.signature,
			timestamp:  h.timestamp,
			nonce:      h.nonce,
			body:       body,
		}
	}

	signer, err := v.verify(req("nonce-0001"))
	require.NoError(t, err)
	assert.Equal(t, kp.id, signer)

	_, err = v.verify(req("nonce-0001"))
	assert.Error(t, err)

	_, err = v.verify(req("nonce-0002"))
	assert.NoError(t, err)

	// A bad signature must not burn the nonce.
	bad := req("nonce-0003")
	bad.body = []byte(`{"x":1}`)
	_, err = v.verify(bad)
	require.Error(t, err)
	_, err = v.verify(req("nonce-0003"))
	assert.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = v.verify(req("nonce-0004"))
	assert.Error(t, err, "timestamp is now outside the window")
}

func TestAdminFlow(t *testing.T) {
	s := newTestServer(t)
	admin := newKeypair(t, 1)
	user := newKeypair(t, 2)
	token := newKeypair(t, 3)

	w := s.get("/registry")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, pushcomm.ErrCodeNotInitialized, errorCode(t, w))

	s.initialize(admin)

	w = s.signed(admin, "/initialize", gin.H{"admin": admin.id, "chainId": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.signed(user, "/admin/token-address", AddressRequest{Address: token.id})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, pushcomm.ErrCodeUnauthorized, errorCode(t, w))

	w = s.signed(admin, "/admin/token-address", AddressRequest{Address: token.id})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reg model.Registry
	decodeData(t, s.get("/registry"), &reg)
	assert.Equal(t, admin.id, reg.Admin)
	assert.Equal(t, token.id, reg.TokenAddress)
	assert.Equal(t, pushcomm.DefaultChainName, reg.ChainName)

	require.Equal(t, http.StatusOK, s.signed(admin, "/admin/pause", nil).Code)
	w = s.signed(admin, "/admin/transfer", TransferAdminRequest{NewAdmin: user.id})
	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Equal(t, pushcomm.ErrCodeContractPaused, errorCode(t, w))
	require.Equal(t, http.StatusOK, s.signed(admin, "/admin/unpause", nil).Code)

	require.Equal(t, http.StatusOK, s.signed(admin, "/admin/transfer", TransferAdminRequest{NewAdmin: user.id}).Code)
	decodeData(t, s.get("/registry"), &reg)
	assert.Equal(t, user.id, reg.Admin)
}

func TestSubscriptionFlow(t *testing.T) {
	s := newTestServer(t)
	admin := newKeypair(t, 1)
	user := newKeypair(t, 2)
	channel := newKeypair(t, 3)
	s.initialize(admin)

	w := s.signed(user, "/subscribe", ChannelRequest{Channel: channel.id})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var receipt pushcomm.Receipt
	decodeData(t, w, &receipt)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, model.EventSubscribed, receipt.Events[0].Kind)

	w = s.signed(user, "/subscribe", ChannelRequest{Channel: channel.id})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, pushcomm.ErrCodeAlreadySubscribed, errorCode(t, w))

	var sub model.Subscription
	decodeData(t, s.get("/subscriptions/"+user.id.String()+"/"+channel.id.String()), &sub)
	assert.Equal(t, channel.id, sub.Channel)

	var ledger model.SubscriberLedger
	decodeData(t, s.get("/subscribers/"+user.id.String()), &ledger)
	assert.Equal(t, uint64(1), ledger.SubscribeCount)

	w = s.signed(user, "/settings", gin.H{"channel": channel.id, "notifId": 7, "notifSettings": "1-0"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var settings model.NotificationSettings
	decodeData(t, s.get("/settings/"+user.id.String()+"/"+channel.id.String()), &settings)
	assert.Equal(t, "7+1-0", settings.Settings)

	require.Equal(t, http.StatusOK, s.signed(user, "/unsubscribe", ChannelRequest{Channel: channel.id}).Code)

	w = s.signed(user, "/unsubscribe", ChannelRequest{Channel: channel.id})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, pushcomm.ErrCodeNotSubscribed, errorCode(t, w))

	assert.Equal(t, http.StatusNotFound, s.get("/subscriptions/"+user.id.String()+"/"+channel.id.String()).Code)
}

func TestDelegatesAndNotifications(t *testing.T) {
	s := newTestServer(t)
	channel := newKeypair(t, 1)
	delegate := newKeypair(t, 2)
	recipient := newKeypair(t, 3)

	notify := gin.H{"channel": channel.id, "recipient": recipient.id, "message": []byte("hello")}

	w := s.signed(delegate, "/notifications", notify)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.Equal(t, http.StatusCreated, s.signed(channel, "/delegates/add", DelegateRequest{Delegate: delegate.id}).Code)

	w = s.signed(channel, "/delegates/add", DelegateRequest{Delegate: delegate.id})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, pushcomm.ErrCodeDelegateAlreadyAdded, errorCode(t, w))

	var rec model.Delegate
	decodeData(t, s.get("/delegates/"+channel.id.String()+"/"+delegate.id.String()), &rec)
	assert.True(t, rec.IsDelegate)

	w = s.signed(delegate, "/notifications", notify)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var receipt pushcomm.Receipt
	decodeData(t, w, &receipt)
	require.Len(t, receipt.Events, 1)
	var payload model.SendNotificationEvent
	require.NoError(t, receipt.Events[0].Decode(&payload))
	assert.Equal(t, []byte("hello"), payload.Message)

	require.Equal(t, http.StatusOK, s.signed(channel, "/delegates/remove", DelegateRequest{Delegate: delegate.id}).Code)
	w = s.signed(channel, "/delegates/remove", DelegateRequest{Delegate: delegate.id})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChannelAlias(t *testing.T) {
	s := newTestServer(t)
	admin := newKeypair(t, 1)
	channel := newKeypair(t, 2)

	w := s.signed(channel, "/channel-alias", gin.H{"channelAddress": "0xabc"})
	assert.Equal(t, http.StatusConflict, w.Code)

	s.initialize(admin)
	w = s.signed(channel, "/channel-alias", gin.H{"channelAddress": "0xabc"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var events []model.Event
	decodeData(t, s.get("/events?after=0&limit=10"), &events)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventChannelAlias, events[0].Kind)
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t)
	user := newKeypair(t, 2)

	assert.Equal(t, http.StatusBadRequest, s.get("/subscribers/not-base58-0OIl").Code)
	assert.Equal(t, http.StatusBadRequest, s.get("/events?after=-1").Code)
	assert.Equal(t, http.StatusBadRequest, s.get("/events?limit=zero").Code)

	w := s.signed(user, "/subscribe", gin.H{"channel": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errCodeBadRequest, errorCode(t, w))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(pushcomm.ErrCodeInvalidArgument))
	assert.Equal(t, http.StatusForbidden, statusFor(pushcomm.ErrCodeUnauthorized))
	assert.Equal(t, http.StatusNotFound, statusFor(pushcomm.ErrCodeDelegateNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(pushcomm.ErrCodeOverflow))
	assert.Equal(t, http.StatusLocked, statusFor(pushcomm.ErrCodeContractPaused))
	assert.Equal(t, http.StatusInternalServerError, statusFor(pushcomm.ErrCodeDatabase))
	assert.Equal(t, http.StatusInternalServerError, statusFor(""))
}
