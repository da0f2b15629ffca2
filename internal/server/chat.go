package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/docvault/internal/rag"
	"github.com/ziadkadry99/docvault/internal/vectordb"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Question string `json:"question"`
	Username string `json:"username"`
	Model    string `json:"model"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type    string         `json:"type"` // "answer" or "error"
	Content string         `json:"content"`
	Sources []vectordb.Hit `json:"sources,omitempty"`
}

// handleChat answers one question per message until the client disconnects.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("websocket read")
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			if !s.send(conn, chatResponse{Type: "error", Content: "invalid message format"}) {
				return
			}
			continue
		}

		ans, err := s.deps.Pipeline.Answer(r.Context(), rag.Question{
			Text:  req.Question,
			Owner: req.Username,
			Model: req.Model,
		})
		resp := chatResponse{Type: "error"}
		if err != nil {
			resp.Content = err.Error()
		} else {
			resp = chatResponse{Type: "answer", Content: ans.Text, Sources: ans.Hits}
		}
		if !s.send(conn, resp) {
			return
		}
	}
}

func (s *Server) send(conn *websocket.Conn, resp chatResponse) bool {
	if err := conn.WriteJSON(resp); err != nil {
		s.logger.Warn().Err(err).Msg("websocket write")
		return false
	}
	return true
}
