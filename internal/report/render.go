package report

import (
	"fmt"
	"html/template"
	"postline/internal/locales"
	"strings"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// reportTemplate mirrors the styling of the legacy report mail: a
// right-to-left card layout with highlighted error rows.
const reportTemplate = `<html>
<head>
    <style>
        body { font-family: Tahoma, sans-serif; direction: rtl; background: #f9f9f9; padding: 20px; }
        .container { max-width: 800px; margin: auto; background: white; padding: 30px; border-radius: 12px; box-shadow: 0 0 15px rgba(0,0,0,0.1); }
        h1 { color: #2c3e50; text-align: center; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
        h2 { color: #2980b9; margin-top: 20px; }
        ul { list-style-type: none; padding: 0; }
        li { margin: 8px 0; padding: 8px; background: #f1f8ff; border-right: 4px solid #3498db; border-radius: 6px; }
        .error { background: #fdf2f2; border-right-color: #e74c3c; }
        .summary { background: #e8f5e8; padding: 15px; border-radius: 8px; margin: 20px 0; }
        .footer { text-align: center; font-size: 0.9em; color: #7f8c8d; margin-top: 30px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.L.Title}}</h1>
        <p><strong>{{.L.DateLabel}}:</strong> {{.Report.Day}}</p>

        <div class="summary">
            <strong>{{.L.SummaryTitle}}:</strong><br>
            {{.L.SummarySent}}: {{.Report.Posts.Sent}}<br>
            {{.L.SummaryRetried}}: {{.Report.Posts.Retried}}<br>
            {{.L.SummaryErrors}}: {{.Report.System.Errors}} | {{.L.SummaryWarnings}}: {{.Report.System.Warnings}}
        </div>

        <h2>{{.L.UsersTitle}}</h2>
        <ul>
            <li><strong>{{.L.Logins}}:</strong> {{.Report.Users.Logins}}</li>
            <li><strong>{{.L.Registrations}}:</strong> {{.Report.Users.Registrations}}</li>
            <li class="error"><strong>{{.L.FailedLogins}}:</strong> {{.Report.Users.FailedLogins}}</li>
        </ul>

        <h2>{{.L.PostsTitle}}</h2>
        <ul>
            <li><strong>{{.L.Sent}}:</strong> {{.Report.Posts.Sent}}</li>
            <li><strong>{{.L.Created}}:</strong> {{.Report.Posts.Created}}</li>
            <li><strong>{{.L.Scheduled}}:</strong> {{.Report.Posts.Scheduled}}</li>
            <li><strong>{{.L.Cancelled}}:</strong> {{.Report.Posts.Cancelled}}</li>
            <li><strong>{{.L.Retried}}:</strong> {{.Report.Posts.Retried}}</li>
            <li class="error"><strong>{{.L.Failed}}:</strong> {{.Report.Posts.Failed}}</li>
        </ul>

        <h2>{{.L.ChatTitle}}</h2>
        <ul>
            <li><strong>{{.L.Sessions}}:</strong> {{.Report.Chat.SessionsCreated}}</li>
            <li><strong>{{.L.Messages}}:</strong> {{.Report.Chat.MessagesSent}}</li>
            <li class="error"><strong>{{.L.AIErrors}}:</strong> {{.Report.Chat.AIErrors}}</li>
        </ul>

        <h2>{{.L.TopIPsTitle}}</h2>
        <ul>
            {{range .TopIPs}}<li><strong>{{.IP}}:</strong> {{.Times}}</li>
            {{end}}
        </ul>

        <h2>{{.L.SystemTitle}}</h2>
        <ul>
            <li><strong>{{.L.Errors}}:</strong> {{.Report.System.Errors}}</li>
            <li><strong>{{.L.Warnings}}:</strong> {{.Report.System.Warnings}}</li>
        </ul>

        <div class="footer">
            {{.L.Footer}}
        </div>
    </div>
</body>
</html>`

var reportTmpl = template.Must(template.New("daily-report").Parse(reportTemplate))

type labels struct {
	Title           string
	DateLabel       string
	SummaryTitle    string
	SummarySent     string
	SummaryRetried  string
	SummaryErrors   string
	SummaryWarnings string
	UsersTitle      string
	Logins          string
	Registrations   string
	FailedLogins    string
	PostsTitle      string
	Sent            string
	Created         string
	Scheduled       string
	Cancelled       string
	Retried         string
	Failed          string
	ChatTitle       string
	Sessions        string
	Messages        string
	AIErrors        string
	TopIPsTitle     string
	SystemTitle     string
	Errors          string
	Warnings        string
	Footer          string
}

type topIPRow struct {
	IP    string
	Times string
}

// Render composes the localized email for a report: subject, plain-text
// fallback and HTML body.
func Render(rep *DailyReport, loc *i18n.Localizer, now time.Time) (subject, textBody, htmlBody string, err error) {
	msg := func(id string) string { return locales.GetMessage(loc, id, nil) }

	l := labels{
		Title:           msg("ReportTitle"),
		DateLabel:       msg("ReportDateLabel"),
		SummaryTitle:    msg("ReportSummaryTitle"),
		SummarySent:     msg("ReportSummarySent"),
		SummaryRetried:  msg("ReportSummaryRetried"),
		SummaryErrors:   msg("ReportSummaryErrors"),
		SummaryWarnings: msg("ReportSummaryWarnings"),
		UsersTitle:      msg("ReportUsersTitle"),
		Logins:          msg("ReportLoginsLabel"),
		Registrations:   msg("ReportRegistrationsLabel"),
		FailedLogins:    msg("ReportFailedLoginsLabel"),
		PostsTitle:      msg("ReportPostsTitle"),
		Sent:            msg("ReportSentLabel"),
		Created:         msg("ReportCreatedLabel"),
		Scheduled:       msg("ReportScheduledLabel"),
		Cancelled:       msg("ReportCancelledLabel"),
		Retried:         msg("ReportRetriedLabel"),
		Failed:          msg("ReportFailedLabel"),
		ChatTitle:       msg("ReportChatTitle"),
		Sessions:        msg("ReportSessionsLabel"),
		Messages:        msg("ReportMessagesLabel"),
		AIErrors:        msg("ReportAIErrorsLabel"),
		TopIPsTitle:     msg("ReportTopIPsTitle"),
		SystemTitle:     msg("ReportSystemTitle"),
		Errors:          msg("ReportErrorsLabel"),
		Warnings:        msg("ReportWarningsLabel"),
		Footer: locales.GetMessage(loc, "ReportFooter", map[string]interface{}{
			"Time": now.Format("15:04"),
		}),
	}

	topIPs := make([]topIPRow, 0, len(rep.TopIPs))
	for _, entry := range rep.TopIPs {
		topIPs = append(topIPs, topIPRow{
			IP: entry.IP,
			Times: locales.GetMessage(loc, "ReportTimesLabel", map[string]interface{}{
				"Count": entry.Count,
			}),
		})
	}

	var html strings.Builder
	err = reportTmpl.Execute(&html, struct {
		L      labels
		Report *DailyReport
		TopIPs []topIPRow
	}{L: l, Report: rep, TopIPs: topIPs})
	if err != nil {
		return "", "", "", fmt.Errorf("render report template: %w", err)
	}

	subject = locales.GetMessage(loc, "ReportSubject", map[string]interface{}{"Date": rep.Day})
	textBody = msg("ReportPlainBody")
	return subject, textBody, html.String(), nil
}
