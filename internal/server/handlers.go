package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MalithGihan/flowviz-service/internal/encode"
	"github.com/MalithGihan/flowviz-service/internal/ingest"
	"github.com/MalithGihan/flowviz-service/internal/metrics"
	"github.com/MalithGihan/flowviz-service/internal/render"
	"github.com/MalithGihan/flowviz-service/internal/session"
	"github.com/MalithGihan/flowviz-service/internal/validate"
	"github.com/MalithGihan/flowviz-service/pkg/types"
)

const dotContentType = "text/vnd.graphviz; charset=utf-8"

type uploadResp struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"sessionId"`
	Nodes     int    `json:"nodes"`
	Edges     int    `json:"edges"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "flowviz-service"})
}

// upload stages the CSV in the store, forwards it to the graph service and opens a
// session on the graph built from it.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadLimit)

	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, "upload", err)
			return
		}
		s.fail(w, r, "upload", validate.Errorf("file", "a multipart file field is required"))
		return
	}
	defer file.Close()

	if ingest.DetectType(hdr.Filename) != ingest.TypeCSV {
		s.fail(w, r, "upload", validate.Errorf("file", "%q is not a CSV file", hdr.Filename))
		return
	}

	sess := s.sessions.Create(types.Graph{})
	resp, err := s.forward(r, sess, hdr.Filename, file)
	s.metrics.Uploads.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		if delErr := s.sessions.Delete(sess.ID); delErr != nil {
			s.logger.Warn("dropping failed upload session", zap.String("session", sess.ID), zap.Error(delErr))
		}
		if rmErr := s.store.RemoveSession(sess.ID); rmErr != nil {
			s.logger.Warn("removing failed upload", zap.String("session", sess.ID), zap.Error(rmErr))
		}
		s.fail(w, r, "upload", err)
		return
	}
	s.metrics.Sessions.Set(float64(s.sessions.Len()))
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) forward(r *http.Request, sess *session.Session, name string, src io.Reader) (uploadResp, error) {
	path, err := s.store.SaveUpload(sess.ID, name, src)
	if err != nil {
		return uploadResp{}, err
	}
	s.logger.Info("upload staged", zap.String("session", sess.ID), zap.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return uploadResp{}, err
	}
	defer f.Close()

	if err := s.graphs.Upload(r.Context(), name, f); err != nil {
		return uploadResp{}, err
	}
	g, err := s.graphs.Graph(r.Context())
	if err != nil {
		return uploadResp{}, err
	}
	sess.SetGraph(g)
	return uploadResp{OK: true, SessionID: sess.ID, Nodes: len(g.Nodes), Edges: len(g.Edges)}, nil
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	g, err := s.graphs.Graph(r.Context())
	if err != nil {
		s.fail(w, r, "graph", err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	if err := s.graphs.Clear(r.Context()); err != nil {
		s.fail(w, r, "clear", err)
		return
	}
	ids := s.sessions.Reset()
	removed, err := s.store.Purge()
	if err != nil {
		s.fail(w, r, "clear", err)
		return
	}
	s.metrics.Sessions.Set(0)
	s.logger.Info("graph cleared", zap.Int("sessions", len(ids)), zap.Int("dirs", removed))
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "sessionsCleared": len(ids)})
}

// encode is the stateless form of /sessions/{id}/dot: the graph comes in the body.
func (s *Server) encode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadLimit)
	g, err := ingest.DecodeGraph(r.Body)
	if err != nil {
		s.fail(w, r, "encode", err)
		return
	}
	params, _, err := paramsFromQuery(r.URL.Query(), s.sessions.Defaults())
	if err != nil {
		s.fail(w, r, "encode", err)
		return
	}
	dot, err := s.describe(g, params)
	if err != nil {
		s.fail(w, r, "encode", err)
		return
	}
	writeDOT(w, dot, 0)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "session", err)
		return nil, false
	}
	return sess, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(id); err != nil {
		s.fail(w, r, "delete", err)
		return
	}
	if err := s.store.RemoveSession(id); err != nil {
		s.logger.Warn("removing session files", zap.String("session", id), zap.Error(err))
	}
	s.metrics.Sessions.Set(float64(s.sessions.Len()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) putParams(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var p types.DisplayParameters
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = &validate.ValidationError{Msg: fmt.Sprintf("malformed parameters: %v", err)}
		}
		s.fail(w, r, "params", err)
		return
	}
	if _, err := sess.SetParams(p); err != nil {
		s.fail(w, r, "params", err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	g, err := s.graphs.Graph(r.Context())
	if err != nil {
		s.fail(w, r, "refresh", err)
		return
	}
	sess.SetGraph(g)
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) dot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	dot, rev, err := s.sessionDOT(sess, r.URL.Query())
	if err != nil {
		s.fail(w, r, "dot", err)
		return
	}
	writeDOT(w, dot, rev)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, r, "export", err)
		return
	}
	dot, rev, err := s.sessionDOT(sess, r.URL.Query())
	if err != nil {
		s.fail(w, r, "export", err)
		return
	}

	start := time.Now()
	img, err := s.renderer.Render(r.Context(), dot, format)
	s.metrics.RenderSeconds.Observe(time.Since(start).Seconds())
	s.metrics.Renders.WithLabelValues(string(format), metrics.Outcome(err)).Inc()
	if err != nil {
		s.fail(w, r, "export", err)
		return
	}
	if _, err := s.store.SaveExport(sess.ID, string(format), img); err != nil {
		s.logger.Warn("saving export", zap.String("session", sess.ID), zap.Error(err))
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=graph.%s", format))
	w.Header().Set("X-Revision", strconv.FormatUint(rev, 10))
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// sessionDOT describes the session's graph. power and mode query values override the
// session's parameters for this call only.
func (s *Server) sessionDOT(sess *session.Session, q url.Values) (string, uint64, error) {
	snap := sess.Snapshot()
	params, overridden, err := paramsFromQuery(q, snap.Params)
	if err != nil {
		return "", 0, err
	}
	if !overridden {
		dot, rev, err := sess.Describe()
		s.metrics.Descriptions.WithLabelValues(string(snap.Params.LabelMode), metrics.Outcome(err)).Inc()
		return dot, rev, err
	}
	dot, err := s.describe(sess.Graph(), params)
	return dot, snap.Revision, err
}

func (s *Server) describe(g types.Graph, p types.DisplayParameters) (string, error) {
	dot, err := encode.Describe(g, p)
	s.metrics.Descriptions.WithLabelValues(string(p.LabelMode), metrics.Outcome(err)).Inc()
	return dot, err
}

func paramsFromQuery(q url.Values, base types.DisplayParameters) (types.DisplayParameters, bool, error) {
	p, overridden := base, false
	if v := q.Get("power"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, false, validate.Errorf("power", "not an integer: %q", v)
		}
		p.PowerPercent, overridden = n, true
	}
	if v := q.Get("mode"); v != "" {
		p.LabelMode, overridden = types.LabelMode(v), true
	}
	return p, overridden, nil
}

func writeDOT(w http.ResponseWriter, dot string, rev uint64) {
	w.Header().Set("Content-Type", dotContentType)
	if rev > 0 {
		w.Header().Set("X-Revision", strconv.FormatUint(rev, 10))
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(dot))
}
