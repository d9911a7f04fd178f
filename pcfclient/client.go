// SPDX-License-Identifier: Apache-2.0

// Package pcfclient carries Npcf_PolicyAuthorization app-session operations
// to the PCF. The PCF serves this interface over cleartext HTTP/2 only (no
// TLS, no HTTP/1.1 upgrade), so the client speaks the framing layer directly
// over a TCP socket: connection preface, SETTINGS exchange, HPACK-encoded
// HEADERS and DATA frames. Each call opens and tears down its own
// connection; there is no pooling or retry here.
package pcfclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/hpack"

	"github.com/opennetsys/nefqos/backend/factory"
	"github.com/opennetsys/nefqos/backend/logger"
	"github.com/opennetsys/nefqos/backend/metrics"
	"github.com/opennetsys/nefqos/qosmodels"
)

const appSessionsPath = "/npcf-policyauthorization/v1/app-sessions"

var (
	ErrRemoteUnavailable = errors.New("policy controller unavailable")
	ErrMalformedResponse = errors.New("malformed policy controller response")
)

type Client struct {
	host           string
	port           int
	dialTimeout    time.Duration
	requestTimeout time.Duration
}

func NewClient(cfg *factory.Pcf) *Client {
	return &Client{
		host:           cfg.Host,
		port:           cfg.Port,
		dialTimeout:    time.Duration(cfg.DialTimeout) * time.Second,
		requestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
	}
}

// CreateAppSession requests a new app session and returns the session id the
// PCF assigned, recovered from the trailing segment of the Location header.
func (c *Client) CreateAppSession(ctx context.Context, asc *qosmodels.AppSessionContext) (string, error) {
	body, err := json.Marshal(asc)
	if err != nil {
		return "", err
	}
	resp, err := c.roundTrip(ctx, appSessionsPath, body)
	if err != nil {
		metrics.PcfRequests.WithLabelValues("create", "failure").Inc()
		return "", err
	}
	if resp.status/100 != 2 {
		metrics.PcfRequests.WithLabelValues("create", "rejected").Inc()
		return "", fmt.Errorf("app session create rejected: status %d", resp.status)
	}
	if resp.location == "" {
		metrics.PcfRequests.WithLabelValues("create", "failure").Inc()
		return "", fmt.Errorf("%w: success without Location header", ErrMalformedResponse)
	}
	sessionId := path.Base(strings.TrimSuffix(resp.location, "/"))
	if sessionId == "" || sessionId == "." || sessionId == "/" {
		metrics.PcfRequests.WithLabelValues("create", "failure").Inc()
		return "", fmt.Errorf("%w: unusable Location %q", ErrMalformedResponse, resp.location)
	}
	metrics.PcfRequests.WithLabelValues("create", "success").Inc()
	logger.PcfLog.Infof("created app session %s", sessionId)
	return sessionId, nil
}

// DeleteAppSession requests teardown of an app session. A missing session on
// the PCF side is treated as a soft success so the delete is idempotent.
func (c *Client) DeleteAppSession(ctx context.Context, appSessionId string) error {
	resp, err := c.roundTrip(ctx, appSessionsPath+"/"+appSessionId+"/delete", nil)
	if err != nil {
		metrics.PcfRequests.WithLabelValues("delete", "failure").Inc()
		return err
	}
	if resp.status/100 != 2 && resp.status != 404 {
		metrics.PcfRequests.WithLabelValues("delete", "rejected").Inc()
		return fmt.Errorf("app session delete rejected: status %d", resp.status)
	}
	metrics.PcfRequests.WithLabelValues("delete", "success").Inc()
	logger.PcfLog.Infof("deleted app session %s (status %d)", appSessionId, resp.status)
	return nil
}

type h2Response struct {
	status   int
	location string
	body     []byte
}

// roundTrip POSTs one request on a fresh connection and reads frames until
// the response stream ends.
func (c *Client) roundTrip(ctx context.Context, reqPath string, body []byte) (*h2Response, error) {
	authority := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", authority)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.requestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if _, err := io.WriteString(conn, http2.ClientPreface); err != nil {
		return nil, fmt.Errorf("%w: preface: %v", ErrRemoteUnavailable, err)
	}

	framer := http2.NewFramer(conn, conn)
	framer.ReadMetaHeaders = hpack.NewDecoder(4096, nil)
	if err := framer.WriteSettings(); err != nil {
		return nil, fmt.Errorf("%w: settings: %v", ErrRemoteUnavailable, err)
	}

	var headerBlock bytes.Buffer
	enc := hpack.NewEncoder(&headerBlock)
	writeField := func(name, value string) {
		// Encode errors only surface on a broken buffer, which bytes.Buffer
		// cannot produce.
		_ = enc.WriteField(hpack.HeaderField{Name: name, Value: value})
	}
	writeField(":method", "POST")
	writeField(":scheme", "http")
	writeField(":authority", authority)
	writeField(":path", reqPath)
	if len(body) > 0 {
		writeField("content-type", "application/json")
	}
	writeField("accept", "application/json")
	writeField("content-length", strconv.Itoa(len(body)))

	const streamID = 1
	if err := framer.WriteHeaders(http2.HeadersFrameParam{
		StreamID:      streamID,
		BlockFragment: headerBlock.Bytes(),
		EndHeaders:    true,
		EndStream:     len(body) == 0,
	}); err != nil {
		return nil, fmt.Errorf("%w: headers: %v", ErrRemoteUnavailable, err)
	}
	if len(body) > 0 {
		if err := framer.WriteData(streamID, true, body); err != nil {
			return nil, fmt.Errorf("%w: data: %v", ErrRemoteUnavailable, err)
		}
	}

	resp := &h2Response{}
	for {
		frame, err := framer.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("%w: read frame: %v", ErrMalformedResponse, err)
		}
		switch f := frame.(type) {
		case *http2.SettingsFrame:
			if !f.IsAck() {
				if err := framer.WriteSettingsAck(); err != nil {
					return nil, fmt.Errorf("%w: settings ack: %v", ErrRemoteUnavailable, err)
				}
			}
		case *http2.MetaHeadersFrame:
			if f.StreamID != streamID {
				continue
			}
			status, convErr := strconv.Atoi(f.PseudoValue("status"))
			if convErr != nil {
				return nil, fmt.Errorf("%w: missing :status", ErrMalformedResponse)
			}
			resp.status = status
			for _, hf := range f.RegularFields() {
				if hf.Name == "location" {
					resp.location = hf.Value
				}
			}
			if f.StreamEnded() {
				return resp, nil
			}
		case *http2.DataFrame:
			if f.StreamID == streamID {
				resp.body = append(resp.body, f.Data()...)
				if f.StreamEnded() {
					return resp, nil
				}
			}
		case *http2.RSTStreamFrame:
			return nil, fmt.Errorf("%w: stream reset, code %v", ErrMalformedResponse, f.ErrCode)
		case *http2.GoAwayFrame:
			return nil, fmt.Errorf("%w: goaway, code %v", ErrRemoteUnavailable, f.ErrCode)
		case *http2.PingFrame:
			if !f.IsAck() {
				if err := framer.WritePing(true, f.Data); err != nil {
					return nil, fmt.Errorf("%w: ping ack: %v", ErrRemoteUnavailable, err)
				}
			}
		default:
			// WINDOW_UPDATE and friends need no action at these body sizes
		}
	}
}
