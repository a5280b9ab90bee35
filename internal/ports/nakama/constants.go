package nakama

// RPC ids clients call. Every action is a stateless RPC against the stored
// session document; there is no resident match handler.
const (
	RpcCrazyStart         = "crazy_start"
	RpcCrazyPlay          = "crazy_play"
	RpcCrazyDraw          = "crazy_draw"
	RpcCrazyPass          = "crazy_pass"
	RpcCrazyAcceptPenalty = "crazy_accept_penalty"
	RpcCrazyDeclareLow    = "crazy_declare_low"
	RpcCrazyCallOut       = "crazy_call_out"
	RpcCrazyStatus        = "crazy_status"
)

// Storage collections. Session and settlement documents are system-owned.
const (
	SessionCollection    = "crazy_sessions"
	SettlementCollection = "crazy_settlements"
	RoomCollection       = "rooms"
)

// Wallet currencies. A stake moves from gold to locked at session start and
// back at settlement, so a player can never spend a committed stake.
const (
	CurrencyGold   = "gold"
	CurrencyLocked = "locked"
)
