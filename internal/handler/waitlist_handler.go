package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"prestalab/portal/internal/model"
	"prestalab/portal/internal/service"
	"prestalab/portal/internal/session"
)

type waitlistCard struct {
	Item  model.Item
	Queue service.QueueInfo
}

type waitlistData struct {
	Query    string
	Cards    []waitlistCard
	Page     int
	NextPage int
	HasMore  bool
	Matched  int
	Total    int
}

func (h *Handler) Waitlist(w http.ResponseWriter, r *http.Request) {
	h.waitlistPage(w, r, nil)
}

func (h *Handler) waitlistPage(w http.ResponseWriter, r *http.Request, banner *Banner) {
	id, _ := session.FromContext(r.Context())
	term := strings.TrimSpace(r.FormValue("q"))
	pageNum, _ := strconv.Atoi(r.FormValue("page"))
	refresh := r.URL.Query().Get("refresh") == "1"

	data := waitlistData{Query: term}
	browse, err := h.svc.Waitlist.Browse(r.Context(), term, pageNum, h.opts.PageSize, refresh)
	if err != nil {
		var ok bool
		if banner, ok = h.failure(w, r, err); !ok {
			return
		}
	} else {
		ids := make([]int64, len(browse.Items))
		for i, it := range browse.Items {
			ids[i] = it.ID
		}
		queues, err := h.svc.Waitlist.Hydrate(r.Context(), id.User, ids)
		if err != nil {
			var ok bool
			if banner, ok = h.failure(w, r, err); !ok {
				return
			}
		}
		for _, it := range browse.Items {
			q, found := queues[it.ID]
			if !found {
				q = service.QueueInfo{ItemID: it.ID}
			}
			data.Cards = append(data.Cards, waitlistCard{Item: it, Queue: q})
		}
		data.Page = browse.Page
		data.NextPage = browse.Page + 1
		data.HasMore = browse.HasMore
		data.Matched = browse.Matched
		data.Total = browse.Total
	}

	h.render(w, r, "waitlist.html", page{Title: "Listas de espera", Active: "waitlist", Banner: banner, Data: data})
}

func (h *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	info, err := h.svc.Waitlist.Join(r.Context(), id.User, formInt(r, "item_id"))
	if err != nil {
		var queued *service.AlreadyQueuedError
		if errors.As(err, &queued) {
			h.waitlistPage(w, r, infoBanner(queued.Error()))
			return
		}
		banner, ok := h.failure(w, r, err)
		if !ok {
			return
		}
		h.waitlistPage(w, r, banner)
		return
	}
	text := "Te uniste a la lista de espera."
	if info.Position > 0 {
		text = fmt.Sprintf("Te uniste a la lista de espera. Tu posición: #%d.", info.Position)
	}
	h.waitlistPage(w, r, okBanner(text))
}

func (h *Handler) LeaveWaitlist(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	err := h.svc.Waitlist.Leave(r.Context(), id.User, formInt(r, "entry_id"), formInt(r, "item_id"))
	if err != nil {
		banner, ok := h.failure(w, r, err)
		if !ok {
			return
		}
		h.waitlistPage(w, r, banner)
		return
	}
	h.waitlistPage(w, r, okBanner("Saliste de la lista de espera."))
}
