package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/sprite-ai/coderev/internal/analyze"
	"github.com/sprite-ai/coderev/internal/model"
	"github.com/sprite-ai/coderev/internal/stream"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev; restrict in production
	},
}

// WebSocket message types from client.
const (
	wsMsgStartAnalysis = "start_analysis"
	wsMsgSubscribe     = "subscribe"
	wsMsgPing          = "ping"
)

// Server pushes reuse the flat stream event shapes; ping gets a bare
// pong and subscribe a bare subscribed ack.
const (
	wsMsgPong       = "pong"
	wsMsgSubscribed = "subscribed"
)

// wsMessage is the envelope for client messages.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsStartAnalysis is the payload for "start_analysis" messages.
type wsStartAnalysis struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Filename string `json:"filename,omitempty"`
}

// wsSubscribe is the payload for "subscribe" messages.
type wsSubscribe struct {
	AnalysisID string `json:"analysis_id"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read: %v", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			sendWSEvent(conn, stream.Failure("invalid message format"))
			continue
		}

		switch msg.Type {
		case wsMsgStartAnalysis:
			handleWSStartAnalysis(conn, msg.Data)
		case wsMsgSubscribe:
			s.handleWSSubscribe(r.Context(), conn, msg.Data)
		case wsMsgPing:
			sendWSEvent(conn, stream.Event{Type: wsMsgPong})
		default:
			sendWSEvent(conn, stream.Failure("unknown message type: "+msg.Type))
		}
	}
}

// handleWSStartAnalysis runs the analysis agents and pushes each progress
// event to the client as it happens, ending with analysis_complete.
func handleWSStartAnalysis(conn *websocket.Conn, data json.RawMessage) {
	var req wsStartAnalysis
	if err := json.Unmarshal(data, &req); err != nil {
		sendWSEvent(conn, stream.Failure("invalid start_analysis data"))
		return
	}

	if req.Code == "" {
		sendWSEvent(conn, stream.Failure("code is required"))
		return
	}
	if !model.LanguageSupported(req.Language) {
		sendWSEvent(conn, stream.Failure("unsupported language: "+req.Language))
		return
	}

	sub := model.Submission{Code: req.Code, Language: req.Language, Filename: req.Filename}
	analyze.Stream(sub, func(ev stream.Event) {
		sendWSEvent(conn, ev)
	})
}

// handleWSSubscribe acknowledges interest in an analysis by id. When the
// analysis already finished, its stored recommendations and terminal
// result replay immediately so a late subscriber folds the same feed a
// live one saw.
func (s *Server) handleWSSubscribe(ctx context.Context, conn *websocket.Conn, data json.RawMessage) {
	var req wsSubscribe
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			sendWSEvent(conn, stream.Failure("invalid subscribe data"))
			return
		}
	}
	if req.AnalysisID == "" {
		sendWSEvent(conn, stream.Failure("analysis_id is required"))
		return
	}

	sendWSEvent(conn, stream.Event{Type: wsMsgSubscribed, AnalysisID: req.AnalysisID})

	rev, err := s.store.GetReview(ctx, req.AnalysisID)
	if err != nil {
		return
	}
	for i, rec := range rev.FixProposals {
		sendWSEvent(conn, stream.RecommendationGenerated(req.AnalysisID, rec, float64(i+1)/float64(len(rev.FixProposals))*100))
	}
	res := analyze.ResultOf(req.AnalysisID, rev)
	sendWSEvent(conn, stream.AnalysisComplete(req.AnalysisID, res, res.AnalysisTimeSeconds))
}

func sendWSEvent(conn *websocket.Conn, ev stream.Event) {
	if err := conn.WriteJSON(ev); err != nil {
		log.Printf("ws write: %v", err)
	}
}
