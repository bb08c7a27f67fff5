package revaultd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/revault/revault-gui/internal/core/domain"
	"github.com/revault/revault-gui/internal/core/ports"
	"github.com/revault/revault-gui/pkg/circuitbreaker"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/singleflight"
)

const (
	methodGetInfo                 = "getinfo"
	methodListVaults              = "listvaults"
	methodListOnchainTransactions = "listonchaintransactions"
	methodGetUnvaultTx            = "getunvaulttx"
	methodGetRevocationTxs        = "getrevocationtxs"
	methodUnvaultTx               = "unvaulttx"
	methodRevocationTxs           = "revocationtxs"
	methodRevault                 = "revault"
)

// Config ...
type Config struct {
	// SocketPath is the path of the revaultd JSON-RPC unix socket.
	SocketPath string
	// Timeout bounds every call made with a context without deadline.
	// Zero means no bound.
	Timeout time.Duration
	// RateLimit is the maximum number of calls per second.
	RateLimit int
	// Registerer collects the client metrics, none if nil.
	Registerer prometheus.Registerer
}

type service struct {
	socketPath string
	timeout    time.Duration

	cb      *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
	group   singleflight.Group
	metrics *metrics

	// lastFailure is the failure of the last round-trip, nil after a
	// success. It is reported while the breaker is open.
	lock        sync.Mutex
	lastFailure *ports.DaemonError
}

// NewService returns a revaultd client speaking JSON-RPC 2.0 over the
// daemon unix socket. Every call opens its own connection, so the client is
// safe for concurrent use.
func NewService(cfg Config) (ports.RevaultD, error) {
	return newService(cfg)
}

func newService(cfg Config) (*service, error) {
	if cfg.SocketPath == "" {
		return nil, ErrMissingSocketPath
	}
	if cfg.RateLimit <= 0 {
		return nil, ErrInvalidRateLimit
	}
	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m, err := newMetrics(reg)
	if err != nil {
		return nil, err
	}

	return &service{
		socketPath: cfg.SocketPath,
		timeout:    cfg.Timeout,
		cb:         circuitbreaker.NewCircuitBreaker("revaultd"),
		limiter:    ratelimit.New(cfg.RateLimit),
		metrics:    m,
	}, nil
}

func (s *service) GetInfo(ctx context.Context) (domain.DaemonInfo, error) {
	var res getInfoResult
	if err := s.query(ctx, methodGetInfo, nil, &res); err != nil {
		return domain.DaemonInfo{}, err
	}
	return res.toDomain(), nil
}

func (s *service) ListVaults(
	ctx context.Context,
	statuses []domain.VaultStatus, outpoints []domain.Outpoint,
) ([]domain.Vault, error) {
	var params []interface{}
	if len(statuses) > 0 || len(outpoints) > 0 {
		statusNames := make([]string, 0, len(statuses))
		for _, st := range statuses {
			statusNames = append(statusNames, st.String())
		}
		outpointStrs := make([]string, 0, len(outpoints))
		for _, o := range outpoints {
			outpointStrs = append(outpointStrs, o.String())
		}
		params = []interface{}{statusNames, outpointStrs}
	}

	var res listVaultsResult
	if err := s.query(ctx, methodListVaults, params, &res); err != nil {
		return nil, err
	}

	vaults := make([]domain.Vault, 0, len(res.Vaults))
	for _, v := range res.Vaults {
		vault, err := v.toDomain()
		if err != nil {
			return nil, decodeError(methodListVaults, err)
		}
		vaults = append(vaults, vault)
	}
	return vaults, nil
}

func (s *service) ListOnchainTransactions(
	ctx context.Context, outpoint domain.Outpoint,
) (domain.VaultTransactions, error) {
	params := []interface{}{[]string{outpoint.String()}}

	var res listOnchainTransactionsResult
	if err := s.query(ctx, methodListOnchainTransactions, params, &res); err != nil {
		return domain.VaultTransactions{}, err
	}

	for _, t := range res.OnchainTransactions {
		if t.VaultOutpoint != outpoint.String() {
			continue
		}
		txs, err := t.toDomain()
		if err != nil {
			return domain.VaultTransactions{}, decodeError(
				methodListOnchainTransactions, err,
			)
		}
		return txs, nil
	}
	return domain.VaultTransactions{}, ports.NewUnexpectedError(
		fmt.Sprintf("no onchain transactions for vault %s", outpoint),
	)
}

func (s *service) GetUnvaultTx(
	ctx context.Context, outpoint domain.Outpoint,
) (domain.UnvaultTransaction, error) {
	params := []interface{}{outpoint.String()}

	var res getUnvaultTxResult
	if err := s.query(ctx, methodGetUnvaultTx, params, &res); err != nil {
		return domain.UnvaultTransaction{}, err
	}

	tx, err := decodePsbt(res.UnvaultTx)
	if err != nil {
		return domain.UnvaultTransaction{}, decodeError(methodGetUnvaultTx, err)
	}
	return domain.UnvaultTransaction{UnvaultTx: tx}, nil
}

func (s *service) GetRevocationTxs(
	ctx context.Context, outpoint domain.Outpoint,
) (domain.RevocationTransactions, error) {
	params := []interface{}{outpoint.String()}

	var res getRevocationTxsResult
	if err := s.query(ctx, methodGetRevocationTxs, params, &res); err != nil {
		return domain.RevocationTransactions{}, err
	}

	cancelTx, err := decodePsbt(res.CancelTx)
	if err != nil {
		return domain.RevocationTransactions{}, decodeError(
			methodGetRevocationTxs, fmt.Errorf("cancel: %w", err),
		)
	}
	emergencyTx, err := decodePsbt(res.EmergencyTx)
	if err != nil {
		return domain.RevocationTransactions{}, decodeError(
			methodGetRevocationTxs, fmt.Errorf("emergency: %w", err),
		)
	}
	emergencyUnvaultTx, err := decodePsbt(res.EmergencyUnvaultTx)
	if err != nil {
		return domain.RevocationTransactions{}, decodeError(
			methodGetRevocationTxs, fmt.Errorf("emergency unvault: %w", err),
		)
	}

	return domain.RevocationTransactions{
		CancelTx:           cancelTx,
		EmergencyTx:        emergencyTx,
		EmergencyUnvaultTx: emergencyUnvaultTx,
	}, nil
}

func (s *service) SetUnvaultTx(
	ctx context.Context, outpoint domain.Outpoint, unvaultTx *psbt.Packet,
) error {
	tx, err := encodePsbt(unvaultTx)
	if err != nil {
		return encodeError(methodUnvaultTx, err)
	}
	return s.call(ctx, methodUnvaultTx, []interface{}{outpoint.String(), tx}, nil)
}

func (s *service) SetRevocationTxs(
	ctx context.Context, outpoint domain.Outpoint,
	emergencyTx, emergencyUnvaultTx, cancelTx *psbt.Packet,
) error {
	params := []interface{}{outpoint.String()}
	for _, packet := range []*psbt.Packet{
		cancelTx, emergencyTx, emergencyUnvaultTx,
	} {
		tx, err := encodePsbt(packet)
		if err != nil {
			return encodeError(methodRevocationTxs, err)
		}
		params = append(params, tx)
	}
	return s.call(ctx, methodRevocationTxs, params, nil)
}

func (s *service) Revault(ctx context.Context, outpoint domain.Outpoint) error {
	return s.call(ctx, methodRevault, []interface{}{outpoint.String()}, nil)
}

// query is a read-only call. Concurrent queries with the same method and
// params share a single round-trip.
func (s *service) query(
	ctx context.Context, method string, params []interface{}, result interface{},
) error {
	key, err := json.Marshal(params)
	if err != nil {
		return encodeError(method, err)
	}

	raw, err, shared := s.group.Do(method+string(key), func() (interface{}, error) {
		var raw json.RawMessage
		err := s.call(ctx, method, params, &raw)
		return raw, err
	})
	if shared {
		log.WithField("method", method).Trace("revaultd call shared")
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw.(json.RawMessage), result); err != nil {
		return decodeError(method, err)
	}
	return nil
}

func (s *service) call(
	ctx context.Context, method string, params []interface{}, result interface{},
) error {
	start := time.Now()
	err := s.doCall(ctx, method, params, result)
	s.metrics.observe(method, start, err)

	logger := log.WithField("method", method)
	if err != nil {
		logger.WithError(err).Warn("revaultd call failed")
		return err
	}
	logger.Debugf("revaultd call took %s", time.Since(start))
	return nil
}

func (s *service) doCall(
	ctx context.Context, method string, params []interface{}, result interface{},
) error {
	if _, ok := ctx.Deadline(); !ok && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.limiter.Take()

	// Rpc errors are replies and do not count against the breaker.
	res, err := s.cb.Execute(func() (interface{}, error) {
		resp, err := s.roundTrip(ctx, method, params)
		if err != nil {
			daemonErr := ports.ToDaemonError(err)
			s.setLastFailure(daemonErr)
			return nil, daemonErr
		}
		s.setLastFailure(nil)
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) ||
			errors.Is(err, gobreaker.ErrTooManyRequests) {
			return s.openStateError()
		}
		return ports.ToDaemonError(err)
	}

	resp := res.(*response)
	if resp.Error != nil {
		return ports.NewRpcError(resp.Error.Code, resp.Error.Message)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return decodeError(method, err)
	}
	return nil
}

func (s *service) setLastFailure(err *ports.DaemonError) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.lastFailure = err
}

// openStateError returns the failure that tripped the breaker, so a stopped
// daemon is still reported as such. NoAnswer if none is known.
func (s *service) openStateError() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.lastFailure == nil {
		return ports.NewNoAnswerError()
	}
	err := *s.lastFailure
	return &err
}

func (s *service) roundTrip(
	ctx context.Context, method string, params []interface{},
) (*response, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", s.socketPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, err
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if params == nil {
		params = []interface{}{}
	}
	req := request{
		JSONRPC: jsonrpcVersion,
		ID:      uuid.New().String(),
		Method:  method,
		Params:  params,
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, connError(ctx, err)
	}

	var resp response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, connError(ctx, err)
	}
	if resp.ID != req.ID {
		return nil, ports.NewUnexpectedError(fmt.Sprintf(
			"response id %s does not match request id %s", resp.ID, req.ID,
		))
	}
	return &resp, nil
}

// connError returns the context error when the connection was closed because
// the context is done.
func connError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func decodeError(method string, err error) error {
	return ports.NewUnexpectedError(
		fmt.Sprintf("failed to decode %s result: %s", method, err),
	)
}

func encodeError(method string, err error) error {
	return ports.NewUnexpectedError(
		fmt.Sprintf("failed to encode %s params: %s", method, err),
	)
}
