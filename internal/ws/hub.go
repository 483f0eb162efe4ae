package ws

import (
	"sync"

	"github.com/gorilla/websocket"

	"taskmate/internal/logging"
)

// Event is a task-related push message for the dashboard.
type Event struct {
	Type   string `json:"type"`
	TaskID int64  `json:"task_id,omitempty"`
	Stage  int    `json:"stage,omitempty"`
	Status string `json:"status,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Hub tracks WebSocket connections per user and pushes task events to
// them. Connections that fail a write are dropped.
type Hub struct {
	mu     sync.Mutex
	conns  map[int64]map[*websocket.Conn]bool
	logger *logging.Logger
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		conns:  make(map[int64]map[*websocket.Conn]bool),
		logger: logger,
	}
}

func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]bool)
	}
	h.conns[userID][conn] = true
	h.logger.Debugf("WebSocket registered for user %d (%d open)", userID, len(h.conns[userID]))
}

func (h *Hub) Unregister(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// Broadcast pushes an event to every open connection of the user.
func (h *Hub) Broadcast(userID int64, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns[userID] {
		if err := conn.WriteJSON(ev); err != nil {
			h.logger.Debugf("WebSocket write to user %d failed, dropping connection: %v", userID, err)
			conn.Close()
			delete(h.conns[userID], conn)
		}
	}
}

// TaskAlerted and AllTasksDone adapt the hub to the escalation engine's
// event sink.

func (h *Hub) TaskAlerted(userID, taskID int64, stage int) {
	h.Broadcast(userID, Event{Type: "alert_sent", TaskID: taskID, Stage: stage})
}

func (h *Hub) AllTasksDone(userID int64, date string) {
	h.Broadcast(userID, Event{Type: "all_tasks_done", Date: date})
}

// TaskCompleted is pushed by the completion endpoint.
func (h *Hub) TaskCompleted(userID, taskID int64, status string) {
	h.Broadcast(userID, Event{Type: "task_completed", TaskID: taskID, Status: status})
}
