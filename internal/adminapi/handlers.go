package adminapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"assurecore/internal/core"
	"assurecore/pkg/domain"
)

// writeError maps service failures onto HTTP statuses.
func (a *API) writeError(c *gin.Context, err error) {
	var rv domain.RuleViolationError
	switch {
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrThreadClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &rv):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      err.Error(),
			"violations": rv.Result.Violations,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// logViolations surfaces warn-level rule findings that committed anyway.
func (a *API) logViolations(operation string, res core.Result) {
	for _, v := range res.Violations {
		a.logger.Warn("rule violation",
			zap.String("operation", operation),
			zap.String("rule", v.Rule),
			zap.String("message", v.Message))
	}
}

func (a *API) getDashboard(c *gin.Context) {
	store := a.svc.Store()
	c.JSON(http.StatusOK, gin.H{
		"stats":          store.Stats(),
		"recent_reports": tail(store.ListReports(), 5),
		"recent_audits":  tail(store.ListAudits(), 5),
	})
}

// tail returns up to n newest rows of an insertion-ordered collection,
// newest first.
func tail[T any](rows []T, n int) []T {
	out := make([]T, 0, n)
	for i := len(rows) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, rows[i])
	}
	return out
}

func (a *API) listBusinesses(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Store().ListBusinesses())
}

func (a *API) createBusiness(c *gin.Context) {
	var b domain.Business
	if err := c.ShouldBindJSON(&b); err != nil || b.BusinessName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_name is required"})
		return
	}
	created, res, err := a.svc.CreateBusiness(c.Request.Context(), b)
	if err != nil {
		a.writeError(c, err)
		return
	}
	a.logViolations("create_business", res)
	c.JSON(http.StatusCreated, created)
}

func (a *API) getBusiness(c *gin.Context) {
	b, ok := a.svc.Store().GetBusiness(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "business not found"})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (a *API) listBusinessLinks(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Store().LinksByBusiness(c.Param("id")))
}

func (a *API) listBusinessReports(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Store().ReportsByBusiness(c.Param("id")))
}

func (a *API) listBusinessAudits(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Store().AuditsByBusiness(c.Param("id")))
}

func (a *API) getLatestAudit(c *gin.Context) {
	audit, ok := a.svc.Store().LatestAuditByBusiness(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no audits recorded"})
		return
	}
	c.JSON(http.StatusOK, audit)
}

func (a *API) listBusinessThreads(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Store().ThreadsByBusiness(c.Param("id")))
}

func (a *API) listBusinessEvidence(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Store().EvidenceByBusiness(c.Param("id")))
}

func (a *API) listInvestors(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Store().ListInvestors())
}

func (a *API) createInvestor(c *gin.Context) {
	var i domain.Investor
	if err := c.ShouldBindJSON(&i); err != nil || i.FullName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "full_name is required"})
		return
	}
	created, res, err := a.svc.CreateInvestor(c.Request.Context(), i)
	if err != nil {
		a.writeError(c, err)
		return
	}
	a.logViolations("create_investor", res)
	c.JSON(http.StatusCreated, created)
}

func (a *API) getInvestor(c *gin.Context) {
	i, ok := a.svc.Store().GetInvestor(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "investor not found"})
		return
	}
	c.JSON(http.StatusOK, i)
}

func (a *API) listInvestorLinks(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Store().LinksByInvestor(c.Param("id")))
}

func (a *API) getPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Store().PortfolioByInvestor(c.Param("id")))
}

func (a *API) listLinks(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Store().Links())
}

func (a *API) createLink(c *gin.Context) {
	var l domain.InvestorBusinessLink
	if err := c.ShouldBindJSON(&l); err != nil || l.InvestorID == "" || l.BusinessID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "investor_id and business_id are required"})
		return
	}
	created, res, err := a.svc.CreateLink(c.Request.Context(), l)
	if err != nil {
		a.writeError(c, err)
		return
	}
	a.logViolations("create_link", res)
	c.JSON(http.StatusCreated, created)
}

func (a *API) listReports(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Store().ListReports())
}

func (a *API) createReport(c *gin.Context) {
	var r domain.Report
	if err := c.ShouldBindJSON(&r); err != nil || r.BusinessID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_id is required"})
		return
	}
	// The console computes the net figure when revenue and expenses are given.
	if r.NetResult == nil && r.RevenueAmount != nil && r.ExpenseAmount != nil {
		net := *r.RevenueAmount - *r.ExpenseAmount
		r.NetResult = &net
	}
	created, res, err := a.svc.CreateReport(c.Request.Context(), r)
	if err != nil {
		a.writeError(c, err)
		return
	}
	a.logViolations("create_report", res)
	c.JSON(http.StatusCreated, created)
}

func (a *API) getReport(c *gin.Context) {
	r, ok := a.svc.Store().GetReport(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.JSON(http.StatusOK, r)
}

type updateReportStatusRequest struct {
	Status        domain.ReportStatus `json:"status" binding:"required"`
	AdminComments string              `json:"admin_comments"`
}

func (a *API) updateReportStatus(c *gin.Context) {
	var req updateReportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	switch req.Status {
	case domain.ReportStatusDraft, domain.ReportStatusSubmitted, domain.ReportStatusReviewed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown report status"})
		return
	}
	updated, res, err := a.svc.UpdateReportStatus(c.Request.Context(), c.Param("id"), req.Status, req.AdminComments)
	if err != nil {
		a.writeError(c, err)
		return
	}
	a.logViolations("update_report_status", res)
	c.JSON(http.StatusOK, updated)
}

func (a *API) listAudits(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Store().ListAudits())
}

func (a *API) createAudit(c *gin.Context) {
	var audit domain.AuditRecord
	if err := c.ShouldBindJSON(&audit); err != nil || audit.BusinessID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_id is required"})
		return
	}
	created, res, err := a.svc.CreateAudit(c.Request.Context(), audit)
	if err != nil {
		a.writeError(c, err)
		return
	}
	a.logViolations("create_audit", res)
	c.JSON(http.StatusCreated, created)
}

func (a *API) createThread(c *gin.Context) {
	var t domain.MessageThread
	if err := c.ShouldBindJSON(&t); err != nil || t.BusinessID == "" || t.Subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_id and subject are required"})
		return
	}
	created, res, err := a.svc.CreateThread(c.Request.Context(), t)
	if err != nil {
		a.writeError(c, err)
		return
	}
	a.logViolations("create_thread", res)
	c.JSON(http.StatusCreated, created)
}

func (a *API) getThread(c *gin.Context) {
	store := a.svc.Store()
	t, ok := store.GetThread(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"thread":   t,
		"messages": store.MessagesByThread(t.ThreadID),
	})
}

func (a *API) listThreadMessages(c *gin.Context) {
	store := a.svc.Store()
	if _, ok := store.GetThread(c.Param("id")); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
		return
	}
	c.JSON(http.StatusOK, store.MessagesByThread(c.Param("id")))
}

type postMessageRequest struct {
	SenderLabel domain.SenderLabel `json:"sender_label" binding:"required"`
	MessageBody string             `json:"message_body" binding:"required"`
}

func (a *API) postMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender_label and message_body are required"})
		return
	}
	created, res, err := a.svc.PostMessage(c.Request.Context(), domain.Message{
		ThreadID:    c.Param("id"),
		SenderLabel: req.SenderLabel,
		MessageBody: req.MessageBody,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	a.logViolations("post_message", res)
	c.JSON(http.StatusCreated, created)
}

// uploadEvidence accepts either a multipart form carrying the document bytes
// in a "file" field, or a JSON body referencing an external file URL.
func (a *API) uploadEvidence(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		a.uploadEvidenceMultipart(c)
		return
	}
	var ev domain.Evidence
	if err := c.ShouldBindJSON(&ev); err != nil || ev.BusinessID == "" || ev.FileName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_id and file_name are required"})
		return
	}
	created, res, err := a.svc.UploadEvidence(c.Request.Context(), ev, nil)
	if err != nil {
		a.writeError(c, err)
		return
	}
	a.logViolations("upload_evidence", res)
	c.JSON(http.StatusCreated, created)
}

func (a *API) uploadEvidenceMultipart(c *gin.Context) {
	businessID := c.PostForm("business_id")
	header, err := c.FormFile("file")
	if err != nil || businessID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_id and file are required"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer f.Close()

	ev := domain.Evidence{
		BusinessID:  businessID,
		FileName:    header.Filename,
		FileType:    header.Header.Get("Content-Type"),
		Description: c.PostForm("description"),
	}
	if reportID := c.PostForm("report_id"); reportID != "" {
		ev.ReportID = &reportID
	}
	created, res, err := a.svc.UploadEvidence(c.Request.Context(), ev, f)
	if err != nil {
		a.writeError(c, err)
		return
	}
	a.logViolations("upload_evidence", res)
	c.JSON(http.StatusCreated, created)
}

func (a *API) getEvidenceURL(c *gin.Context) {
	id := c.Param("id")
	var found *domain.Evidence
	if err := a.svc.Store().View(c.Request.Context(), func(v domain.TransactionView) error {
		for _, ev := range v.ListEvidence() {
			if ev.EvidenceID == id {
				e := ev
				found = &e
				break
			}
		}
		return nil
	}); err != nil {
		a.writeError(c, err)
		return
	}
	if found == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "evidence not found"})
		return
	}
	url, err := a.svc.EvidenceDocumentURL(c.Request.Context(), *found)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
