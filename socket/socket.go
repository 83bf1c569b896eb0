package socket

import (
	"errors"
	"sync"
	"time"

	"github.com/aidarkhanov/nanoid/v2"
	"github.com/segmentio/fasthash/fnv1a"
)

const CONCURRENCY = 32
const VALID_NANOID_CHAR = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
const WSID_LENGTH = 10
const MAX_WS_CONNECTION_TIME = 1 * time.Hour

var errSessionID = errors.New("socket: could not generate session id")

type conc_ws_id_table struct {
	table map[string]chan []byte
	sync.RWMutex
}
type conc_ws_id_table_shards []*conc_ws_id_table

func (ct conc_ws_id_table_shards) get_shard(id string) *conc_ws_id_table {
	return ct[fnv1a.HashString32(id)%CONCURRENCY]
}

// Sessions is the table of open websocket sessions and their outgoing frames
type Sessions struct {
	shards conc_ws_id_table_shards
	buffer int
}

// NewSessions creates a table whose sessions buffer up to buffer frames
func NewSessions(buffer int) *Sessions {
	if buffer <= 0 {
		buffer = 16
	}
	shards := make(conc_ws_id_table_shards, CONCURRENCY)
	for i := 0; uint32(i) < CONCURRENCY; i++ {
		shards[i] = &conc_ws_id_table{table: make(map[string]chan []byte)}
	}
	return &Sessions{shards: shards, buffer: buffer}
}

func (s *Sessions) create_connection() (string, chan []byte, error) {

	messageChannel := make(chan []byte, s.buffer)

	for {
		WSID, err := nanoid.GenerateString(VALID_NANOID_CHAR, WSID_LENGTH)
		if err != nil {
			return "", nil, errSessionID
		}

		shard := s.shards.get_shard(WSID)

		shard.Lock()
		if _, exists := shard.table[WSID]; exists {
			shard.Unlock()
			continue
		}
		shard.table[WSID] = messageChannel
		shard.Unlock()

		return WSID, messageChannel, nil
	}
}

func (s *Sessions) delete_connection(WSID string) {

	shard := s.shards.get_shard(WSID)

	shard.Lock()

	msg_chan := shard.table[WSID]
	delete(shard.table, WSID)

	shard.Unlock()

	if msg_chan != nil {
		close(msg_chan)
	}

}

// Emit queues frame for WSID. A missing session or a full buffer drops the frame.
func (s *Sessions) Emit(WSID string, frame []byte) bool {

	shard := s.shards.get_shard(WSID)

	shard.RLock()
	defer shard.RUnlock()

	msg_chan := shard.table[WSID]
	if msg_chan == nil {
		return false
	}

	select {
	case msg_chan <- frame:
		return true
	default:
		return false
	}
}

// Len counts open sessions
func (s *Sessions) Len() int {
	n := 0
	for _, shard := range s.shards {
		shard.RLock()
		n += len(shard.table)
		shard.RUnlock()
	}
	return n
}
