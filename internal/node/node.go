package node

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alphabill-org/assetswap/internal/eventbus"
	"github.com/alphabill-org/assetswap/internal/keyvaluedb"
	"github.com/alphabill-org/assetswap/internal/keyvaluedb/memorydb"
	"github.com/alphabill-org/assetswap/internal/logger"
	"github.com/alphabill-org/assetswap/internal/metrics"
	"github.com/alphabill-org/assetswap/internal/state"
	"github.com/alphabill-org/assetswap/internal/swap"
	"github.com/alphabill-org/assetswap/internal/txsystem/money"
	"github.com/alphabill-org/assetswap/internal/txsystem/tokens"
	"github.com/alphabill-org/assetswap/internal/types"
)

var log = logger.CreateForPackage()

const (
	// TopicOffers receives NewOffer, OfferDeclined and OfferAccepted events.
	TopicOffers = "swap.offers"
	// TopicSettlement receives PaymentSettled and SwapSettled events.
	TopicSettlement = "swap.settlement"
	// TopicAll receives every event.
	TopicAll = "swap.all"
)

var (
	ErrTxIsNil            = errors.New("transaction is nil")
	ErrInvalidNonce       = errors.New("invalid transaction nonce")
	ErrUnknownPayloadType = errors.New("unknown transaction type")
	ErrInvalidAttributes  = errors.New("invalid transaction attributes")
)

type (
	// Node executes signed transaction orders one at a time. Each transaction either
	// applies all of its effects, which are then persisted, or none of them.
	Node struct {
		mutex         sync.Mutex
		publishMutex  sync.Mutex // keeps events in commit order once mutex is released
		db            keyvaluedb.KeyValueDB
		state         *state.State
		registry      *tokens.Registry
		ledger        *money.Ledger
		env           *swap.Environment
		eventBus      *eventbus.EventBus
		administrator types.Address
		handlers      map[string]txHandler
		// events of the transaction being executed
		pending []*swap.Event

		txAccepted   *metrics.Counter
		txRejected   *metrics.Counter
		swapsSettled *metrics.Counter
	}

	txHandler func(caller types.Address, tx *types.TransactionOrder) (*TxResult, error)

	// TxResult describes the outcome of an executed transaction.
	TxResult struct {
		Caller types.Address
		Type   string
		Nonce  uint64
		// Swap is the address of the coordinator the transaction deployed or acted on.
		Swap   types.Address
		Events []*swap.Event
	}

	Option func(c *configuration)

	configuration struct {
		db       keyvaluedb.KeyValueDB
		eventBus *eventbus.EventBus
	}
)

// WithDatabase sets the database the state is persisted to, in-memory database by default.
func WithDatabase(db keyvaluedb.KeyValueDB) Option {
	return func(c *configuration) {
		c.db = db
	}
}

func WithEventBus(bus *eventbus.EventBus) Option {
	return func(c *configuration) {
		c.eventBus = bus
	}
}

// New loads the state from the database. When the database is empty the genesis is applied
// and persisted first.
func New(genesis *Genesis, opts ...Option) (*Node, error) {
	if err := genesis.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}
	conf := &configuration{}
	for _, opt := range opts {
		opt(conf)
	}
	if conf.db == nil {
		conf.db = memorydb.New()
	}
	if conf.eventBus == nil {
		conf.eventBus = eventbus.New()
	}
	s, err := state.NewRecoveredState(conf.db, NewUnitData)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	admin := genesis.AdministratorAddress()
	n := &Node{
		db:            conf.db,
		state:         s,
		registry:      tokens.NewRegistry(s, admin),
		ledger:        money.NewLedger(s, admin),
		eventBus:      conf.eventBus,
		administrator: admin,
		txAccepted:    metrics.GetOrRegisterCounter("assetswap/tx/accepted"),
		txRejected:    metrics.GetOrRegisterCounter("assetswap/tx/rejected"),
		swapsSettled:  metrics.GetOrRegisterCounter("assetswap/swaps/settled"),
	}
	n.env = &swap.Environment{
		State:    s,
		Registry: n.registry,
		Ledger:   n.ledger,
		Events:   func(e *swap.Event) { n.pending = append(n.pending, e) },
	}
	n.handlers = n.txHandlers()

	if s.Size() == 0 {
		log.Info("Empty database, applying genesis")
		if err := genesis.apply(n.registry, n.ledger); err != nil {
			s.Revert()
			return nil, fmt.Errorf("applying genesis: %w", err)
		}
		if err := s.Commit(n.db); err != nil {
			return nil, fmt.Errorf("persisting genesis state: %w", err)
		}
	}
	log.Info("Node started with %d units, administrator %s", s.Size(), admin)
	return n, nil
}

func (n *Node) EventBus() *eventbus.EventBus {
	return n.eventBus
}

func (n *Node) Administrator() types.Address {
	return n.administrator
}

// SubmitTx verifies and executes the transaction. Events of a successful transaction are published
// on the event bus after the state has been persisted and the state lock released.
func (n *Node) SubmitTx(ctx context.Context, tx *types.TransactionOrder) (*TxResult, error) {
	if tx == nil {
		return nil, ErrTxIsNil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	caller, err := tx.Caller()
	if err != nil {
		n.txRejected.Inc(1)
		return nil, err
	}

	n.mutex.Lock()
	res, err := n.execute(caller, tx)
	if err != nil {
		n.mutex.Unlock()
		n.txRejected.Inc(1)
		log.Debug("Transaction %s from %s rejected: %v", tx.PayloadType(), caller, err)
		return nil, err
	}
	n.publishMutex.Lock()
	n.mutex.Unlock()
	defer n.publishMutex.Unlock()

	n.txAccepted.Inc(1)
	log.Debug("Transaction %s from %s executed", tx.PayloadType(), caller)
	n.publish(res.Events)
	return res, nil
}

func (n *Node) execute(caller types.Address, tx *types.TransactionOrder) (*TxResult, error) {
	handler, f := n.handlers[tx.PayloadType()]
	if !f {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPayloadType, tx.PayloadType())
	}
	if expected := n.nonce(caller); tx.Nonce() != expected {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidNonce, expected, tx.Nonce())
	}

	n.pending = nil
	defer func() { n.pending = nil }()
	var res *TxResult
	err := n.state.Atomically(func() (err error) {
		if res, err = handler(caller, tx); err != nil {
			return err
		}
		return n.state.Apply(incrementNonce(caller))
	})
	if err != nil {
		return nil, err
	}
	if err := n.state.Commit(n.db); err != nil {
		n.state.Revert()
		return nil, fmt.Errorf("persisting state: %w", err)
	}
	if res == nil {
		res = &TxResult{}
	}
	res.Caller = caller
	res.Type = tx.PayloadType()
	res.Nonce = tx.Nonce()
	res.Events = n.pending
	return res, nil
}

// publish never blocks, a subscriber that does not keep up misses the event.
func (n *Node) publish(events []*swap.Event) {
	for _, e := range events {
		if e.Type == swap.EventSwapSettled {
			n.swapsSettled.Inc(1)
		}
		topic := TopicOffers
		if e.IsSettlement() {
			topic = TopicSettlement
		}
		for _, t := range []string{topic, TopicAll} {
			if err := n.eventBus.Submit(t, e); err != nil && !errors.Is(err, eventbus.ErrTopicNotFound) {
				log.Warning("Failed to publish %s event of swap %s: %v", e.Type, e.Swap, err)
			}
		}
	}
}

func (n *Node) nonce(caller types.Address) uint64 {
	u, err := n.state.GetUnit(types.NewNonceUnitID(caller))
	if err != nil {
		return 0
	}
	if d, ok := u.Data().(*nonceData); ok {
		return d.Counter
	}
	return 0
}
