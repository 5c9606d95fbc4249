package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"faceless/internal/logging"
	"faceless/internal/session"
	"faceless/internal/workflowgraph"
)

// ServerInfo carries static daemon facts reported alongside status.
type ServerInfo struct {
	LockPath string
	DBPath   string
}

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, sess *session.Session, info ServerInfo, stop func(), logger *slog.Logger) (*Server, error) {
	if sess == nil {
		return nil, errors.New("ipc server requires session")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{sess: sess, info: info, stop: stop, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Faceless", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket", logging.String("socket", s.path), logging.Error(err))
	}
}

type service struct {
	sess   *session.Session
	info   ServerInfo
	stop   func()
	logger *slog.Logger
	ctx    context.Context
}

// Chat runs one full turn. The call blocks for the duration of the
// generation; clients show their own progress indication.
func (s *service) Chat(req ChatRequest, resp *ChatResponse) error {
	result, err := s.sess.Chat(s.ctx, req.Text, nil)
	if err != nil {
		return err
	}
	*resp = ChatResponse{
		TurnID:         result.TurnID,
		Provider:       result.Provider,
		Reply:          result.Reply,
		Mood:           result.Mood,
		Location:       result.Location,
		VisualAnchor:   result.VisualAnchor,
		ChangeScene:    result.ChangeScene,
		SceneAppend:    result.SceneAppend,
		Seed:           result.Seed,
		PositivePrompt: result.PositivePrompt,
		ArtifactPath:   result.ArtifactPath,
		ElapsedMillis:  result.Elapsed.Milliseconds(),
	}
	return nil
}

func (s *service) Status(req StatusRequest, resp *StatusResponse) error {
	status := s.sess.Status()
	*resp = StatusResponse{
		Running:         true,
		Busy:            status.Busy,
		Provider:        status.Provider,
		IdentityProfile: status.IdentityProfile,
		Location:        status.Location,
		Mood:            status.Mood,
		VisualAnchor:    status.VisualAnchor,
		TurnID:          status.TurnID,
		HistoryLen:      status.HistoryLen,
		LockPath:        s.info.LockPath,
		DBPath:          s.info.DBPath,
		PID:             os.Getpid(),
	}
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	turns, err := s.sess.History(s.ctx, limit)
	if err != nil {
		return err
	}
	resp.Turns = make([]TurnSummary, 0, len(turns))
	for _, turn := range turns {
		resp.Turns = append(resp.Turns, TurnSummary{
			TurnID:       turn.TurnID,
			CreatedAt:    turn.CreatedAt.Format(time.RFC3339),
			Provider:     turn.Provider,
			UserText:     turn.UserText,
			ReplyText:    turn.ReplyText,
			Location:     turn.Location,
			Mood:         turn.Mood,
			ChangeScene:  turn.ChangeScene,
			Seed:         turn.Seed,
			ArtifactPath: turn.ArtifactPath,
		})
	}
	return nil
}

func (s *service) SetCharacter(req SetCharacterRequest, resp *SetCharacterResponse) error {
	s.sess.SetCharacter(workflowgraph.CharacterParams{
		VisualBase:      req.VisualBase,
		IdentityProfile: req.IdentityProfile,
		LoraName:        req.LoraName,
		LoraStrength:    req.LoraStrength,
	})
	resp.Updated = true
	return nil
}

func (s *service) SetGenParams(req SetGenParamsRequest, resp *SetGenParamsResponse) error {
	s.sess.SetGenParams(workflowgraph.GenParams{
		Seed:        req.Seed,
		Steps:       req.Steps,
		CFG:         req.CFG,
		SamplerName: req.SamplerName,
		Scheduler:   req.Scheduler,
		QualityTags: req.QualityTags,
		Negative:    req.Negative,
		Checkpoint:  req.Checkpoint,
	})
	resp.Updated = true
	return nil
}

func (s *service) Catalogs(req CatalogsRequest, resp *CatalogsResponse) error {
	loras, checkpoints := s.sess.Catalogs(s.ctx)
	resp.Loras = loras
	resp.Checkpoints = checkpoints
	return nil
}

func (s *service) TestNotification(req TestNotificationRequest, resp *TestNotificationResponse) error {
	if err := s.sess.TestNotification(s.ctx); err != nil {
		resp.Sent = false
		resp.Message = err.Error()
		return nil
	}
	resp.Sent = true
	resp.Message = "notification sent"
	return nil
}

func (s *service) Stop(req StopRequest, resp *StopResponse) error {
	resp.Stopped = true
	if s.stop != nil {
		// Deferred so the response reaches the client before shutdown.
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.stop()
		}()
	}
	return nil
}
