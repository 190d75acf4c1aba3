package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"shoshin/internal/persistence/indexdb"
	persistlog "shoshin/internal/persistence/log"
	"shoshin/internal/protocol"
	"shoshin/internal/roster/aggregate"
	"shoshin/internal/roster/catalogs"
	"shoshin/internal/roster/resolve"
	"shoshin/internal/roster/tuning"
)

const maxBodyBytes = 1 << 20

type api struct {
	cats     *catalogs.Catalogs
	resolver *resolve.Resolver
	engine   *aggregate.Engine
	schemas  *protocol.Schemas
	tune     tuning.Tuning
	store    *indexdb.Store
	audit    *persistlog.AuditLogger
	log      *log.Logger
}

func (a *api) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/catalogs", a.handleCatalogs)
	mux.HandleFunc("/v1/derive", a.handleDerive)
	mux.HandleFunc("/v1/aggregate", a.handleAggregate)
	mux.HandleFunc("/v1/rosters", a.handleRosterList)
	mux.HandleFunc("/v1/rosters/", a.handleRoster)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reqID, code, msg string) {
	writeJSON(w, status, protocol.NewError(reqID, code, msg))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "", protocol.ErrTooLarge, "body too large")
		return nil, false
	}
	return body, true
}

func (a *api) handleCatalogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "", protocol.ErrBadRequest, "GET only")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"digests":   a.cats.Digests(),
		"assets":    a.cats.Assets.Order,
		"munitions": a.cats.Munitions.Order,
		"hull_dims": a.cats.Hulls.Order,
	})
}

func (a *api) handleDerive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "", protocol.ErrBadRequest, "POST only")
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if a.schemas != nil {
		if err := protocol.ValidateRaw(a.schemas.Derive, body); err != nil {
			writeError(w, http.StatusBadRequest, "", protocol.ErrProtoBadRequest, err.Error())
			return
		}
	}
	var req protocol.DeriveMsg
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "", protocol.ErrProtoBadRequest, "bad DERIVE")
		return
	}

	form := req.State.Form()
	mem := resolve.NewMemory(req.PrevAsset)
	model := a.resolver.Converge(&form, mem, req.Init)

	if a.audit != nil {
		_ = a.audit.Write(persistlog.AuditEntry{
			Kind:      "derive",
			ReqID:     req.ReqID,
			Asset:     req.State.AssetName,
			TotalCost: model.TotalCost,
			Patched:   !model.Patch.Empty(),
		})
	}

	writeJSON(w, http.StatusOK, protocol.ModelMsg{
		Type:            protocol.TypeModel,
		ProtocolVersion: protocol.Version,
		ReqID:           req.ReqID,
		State:           protocol.PayloadFromForm(form),
		Model:           model,
	})
}

func (a *api) handleAggregate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "", protocol.ErrBadRequest, "POST only")
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if a.schemas != nil {
		if err := protocol.ValidateRaw(a.schemas.Aggregate, body); err != nil {
			writeError(w, http.StatusBadRequest, "", protocol.ErrProtoBadRequest, err.Error())
			return
		}
	}
	var req protocol.AggregateMsg
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "", protocol.ErrProtoBadRequest, "bad AGGREGATE")
		return
	}
	if len(req.Units) > a.tune.MaxAggregateUnits {
		writeError(w, http.StatusRequestEntityTooLarge, req.ReqID, protocol.ErrTooLarge, "too many units")
		return
	}

	totals := a.engine.Aggregate(req.Units)

	rosterID := req.RosterID
	if req.Persist && a.store != nil {
		id, err := a.store.PutRoster(r.Context(), indexdb.RosterRow{
			ID:     req.RosterID,
			Name:   req.RosterName,
			Units:  aggregate.Group(req.Units),
			Totals: totals,
		})
		if err != nil {
			a.log.Printf("persist roster: %v", err)
			writeError(w, http.StatusInternalServerError, req.ReqID, protocol.ErrInternal, "persist failed")
			return
		}
		rosterID = id
	}

	if a.audit != nil {
		_ = a.audit.Write(persistlog.AuditEntry{
			Kind:      "aggregate",
			ReqID:     req.ReqID,
			RosterID:  rosterID,
			Units:     len(req.Units),
			Points:    totals.Points,
			UnitCount: totals.UnitCount,
		})
	}

	writeJSON(w, http.StatusOK, protocol.TotalsMsg{
		Type:            protocol.TypeTotals,
		ProtocolVersion: protocol.Version,
		ReqID:           req.ReqID,
		RosterID:        rosterID,
		Totals:          totals,
	})
}

func (a *api) handleRosterList(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusServiceUnavailable, "", protocol.ErrInternal, "persistence disabled")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "", protocol.ErrBadRequest, "GET only")
		return
	}
	rows, err := a.store.ListRosters(r.Context())
	if err != nil {
		a.log.Printf("list rosters: %v", err)
		writeError(w, http.StatusInternalServerError, "", protocol.ErrInternal, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *api) handleRoster(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusServiceUnavailable, "", protocol.ErrInternal, "persistence disabled")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/rosters/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "", protocol.ErrBadRequest, "missing roster id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		row, err := a.store.GetRoster(r.Context(), id)
		if err == indexdb.ErrNotFound {
			writeError(w, http.StatusNotFound, "", protocol.ErrRosterNotFound, id)
			return
		}
		if err != nil {
			a.log.Printf("get roster: %v", err)
			writeError(w, http.StatusInternalServerError, "", protocol.ErrInternal, "get failed")
			return
		}
		writeJSON(w, http.StatusOK, row)

	case http.MethodPut:
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		var req struct {
			Name  string                 `json:"name"`
			Units []aggregate.UnitRecord `json:"units"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "", protocol.ErrProtoBadRequest, "bad roster body")
			return
		}
		if len(req.Units) > a.tune.MaxAggregateUnits {
			writeError(w, http.StatusRequestEntityTooLarge, "", protocol.ErrTooLarge, "too many units")
			return
		}
		totals := a.engine.Aggregate(req.Units)
		if _, err := a.store.PutRoster(r.Context(), indexdb.RosterRow{
			ID:     id,
			Name:   req.Name,
			Units:  aggregate.Group(req.Units),
			Totals: totals,
		}); err != nil {
			a.log.Printf("put roster: %v", err)
			writeError(w, http.StatusInternalServerError, "", protocol.ErrInternal, "put failed")
			return
		}
		writeJSON(w, http.StatusOK, protocol.TotalsMsg{
			Type:            protocol.TypeTotals,
			ProtocolVersion: protocol.Version,
			RosterID:        id,
			Totals:          totals,
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "", protocol.ErrBadRequest, "GET or PUT")
	}
}
