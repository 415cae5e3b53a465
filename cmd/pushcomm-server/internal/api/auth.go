package api

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mr-tron/base58"

	"github.com/coregx/pushcomm/model"
)

// Request signing headers. The signature is an ed25519 signature, made with
// the private key of the signer identity, over SigningMessage.
const (
	HeaderSigner    = "X-Pushcomm-Signer"
	HeaderSignature = "X-Pushcomm-Signature"
	HeaderTimestamp = "X-Pushcomm-Timestamp" // unix seconds
	HeaderNonce     = "X-Pushcomm-Nonce"
)

type contextKey string

const signerKey contextKey = "pushcomm_signer"

const (
	// maxBodyBytes caps signed request bodies.
	maxBodyBytes = 64 << 10

	minNonceLength = 8
	maxNonceLength = 64

	DefaultMaxClockSkew   = 5 * time.Minute
	DefaultNonceCacheSize = 100000
)

// SigningMessage returns the bytes a client signs:
//
//	METHOD " " REQUEST-URI "\n" TIMESTAMP "\n" NONCE "\n" BODY
//
// Binding the method and route keeps a signature from being replayed on a
// different endpoint; the timestamp and nonce keep it from being replayed at all.
func SigningMessage(method, requestURI string, timestamp int64, nonce string, body []byte) []byte {
	var b bytes.Buffer
	b.Grow(len(method) + len(requestURI) + len(nonce) + len(body) + 24)
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(requestURI)
	b.WriteByte('\n')
	b.WriteString(strconv.FormatInt(timestamp, 10))
	b.WriteByte('\n')
	b.WriteString(nonce)
	b.WriteByte('\n')
	b.Write(body)
	return b.Bytes()
}

// AuthConfig tunes request signature checks.
type AuthConfig struct {
	// MaxClockSkew is how far a request timestamp may drift from server time.
	MaxClockSkew time.Duration
	// NonceCacheSize bounds the number of remembered nonces.
	NonceCacheSize int
	// Now defaults to time.Now.
	Now func() time.Time
}

// SignatureVerifier authenticates signed requests and rejects replays.
//
// Nonces are remembered for twice MaxClockSkew, which covers every timestamp
// still inside the acceptance window.
type SignatureVerifier struct {
	maxSkew time.Duration
	now     func() time.Time

	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

// NewSignatureVerifier creates a verifier, filling zero fields of cfg with defaults.
func NewSignatureVerifier(cfg AuthConfig) *SignatureVerifier {
	if cfg.MaxClockSkew <= 0 {
		cfg.MaxClockSkew = DefaultMaxClockSkew
	}
	if cfg.NonceCacheSize <= 0 {
		cfg.NonceCacheSize = DefaultNonceCacheSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SignatureVerifier{
		maxSkew: cfg.MaxClockSkew,
		now:     cfg.Now,
		seen:    expirable.NewLRU[string, struct{}](cfg.NonceCacheSize, nil, 2*cfg.MaxClockSkew),
	}
}

// signedRequest holds the signing headers of one request.
type signedRequest struct {
	method     string
	requestURI string
	signer     string
	signature  string
	timestamp  string
	nonce      string
	body       []byte
}

// verify checks the signature, the timestamp window and nonce freshness, and
// returns the signer. A nonce is consumed only by a valid signature.
func (v *SignatureVerifier) verify(req signedRequest) (model.Identity, error) {
	if req.signer == "" || req.signature == "" || req.timestamp == "" || req.nonce == "" {
		return model.ZeroIdentity, errors.New("missing signature headers")
	}

	signer, err := model.ParseIdentity(req.signer)
	if err != nil {
		return model.ZeroIdentity, err
	}

	sig, err := base58.Decode(req.signature)
	if err != nil {
		return model.ZeroIdentity, errors.New("signature is not base58")
	}
	if len(sig) != ed25519.SignatureSize {
		return model.ZeroIdentity, errors.New("signature has wrong length")
	}

	ts, err := strconv.ParseInt(req.timestamp, 10, 64)
	if err != nil {
		return model.ZeroIdentity, errors.New("timestamp is not unix seconds")
	}
	if len(req.nonce) < minNonceLength || len(req.nonce) > maxNonceLength {
		return model.ZeroIdentity, fmt.Errorf("nonce must be %d-%d bytes", minNonceLength, maxNonceLength)
	}

	msg := SigningMessage(req.method, req.requestURI, ts, req.nonce, req.body)
	if !ed25519.Verify(ed25519.PublicKey(signer.Bytes()), msg, sig) {
		return model.ZeroIdentity, errors.New("signature does not match signer")
	}

	skew := v.now().Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.maxSkew {
		return model.ZeroIdentity, errors.New("request timestamp outside the accepted window")
	}

	key := signer.String() + ":" + req.nonce
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.seen.Contains(key) {
		return model.ZeroIdentity, errors.New("nonce already used")
	}
	v.seen.Add(key, struct{}{})

	return signer, nil
}

// Middleware authenticates the signer of a mutating request.
func (v *SignatureVerifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, errCodeBadRequest, "Failed to read request body")
			c.Abort()
			return
		}
		if len(body) > maxBodyBytes {
			respondWithError(c, http.StatusRequestEntityTooLarge, errCodeBadRequest, "Request body too large")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		signer, err := v.verify(signedRequest{
			method:     c.Request.Method,
			requestURI: c.Request.URL.RequestURI(),
			signer:     c.GetHeader(HeaderSigner),
			signature:  c.GetHeader(HeaderSignature),
			timestamp:  c.GetHeader(HeaderTimestamp),
			nonce:      c.GetHeader(HeaderNonce),
			body:       body,
		})
		if err != nil {
			respondWithError(c, http.StatusUnauthorized, errCodeUnauthenticated, "Invalid request signature", err.Error())
			c.Abort()
			return
		}

		c.Set(string(signerKey), signer)
		c.Next()
	}
}

// signerFrom returns the identity set by the signature middleware.
func signerFrom(c *gin.Context) model.Identity {
	v, ok := c.Get(string(signerKey))
	if !ok {
		return model.ZeroIdentity
	}
	signer, _ := v.(model.Identity)
	return signer
}
