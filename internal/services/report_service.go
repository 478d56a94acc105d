package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/MohnajibG/circet/internal/config"
	"github.com/MohnajibG/circet/internal/repositories"
	"github.com/MohnajibG/circet/internal/utils"
)

/* ------------------------------------------------------------------
   Nightly activity report: one CSV per operator for the previous day,
   written under EXPORT_DIR and, when Sendgrid is configured, mailed as
   attachments to the report mailbox. Scheduled from main via cron.
------------------------------------------------------------------ */

type ReportService struct {
	cfg            *config.Config
	profiles       repositories.UserProfileRepository
	exports        *ExportService
	sendgridClient *sendgrid.Client
}

func NewReportService(cfg *config.Config, profiles repositories.UserProfileRepository, exports *ExportService) *ReportService {
	s := &ReportService{cfg: cfg, profiles: profiles, exports: exports}
	if cfg.SendgridAPIKey != "" {
		s.sendgridClient = sendgrid.NewSendClient(cfg.SendgridAPIKey)
	}
	return s
}

// RunDailyReport exports yesterday's visits for every known operator.
// Failures for one operator are logged and do not abort the others.
func (s *ReportService) RunDailyReport(ctx context.Context) error {
	day := time.Now().AddDate(0, 0, -1)

	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return err
	}

	type reportFile struct {
		operator string
		name     string
		data     []byte
	}
	var files []reportFile

	for _, p := range profiles {
		data, err := s.exports.BuildDayCSV(ctx, p.UID, day)
		if err != nil {
			utils.Logger.WithError(err).Errorf("Daily report export failed for user %s", p.UID)
			continue
		}

		name := fmt.Sprintf("%s_%s", p.UID, ExportFilename(day))
		if err := s.writeFile(name, data); err != nil {
			utils.Logger.WithError(err).Errorf("Daily report write failed for user %s", p.UID)
			continue
		}
		files = append(files, reportFile{operator: p.DisplayName, name: name, data: data})
	}

	utils.Logger.Infof("Daily report: exported %d/%d operator file(s) for %s",
		len(files), len(profiles), day.Format("2006-01-02"))

	if s.sendgridClient == nil || s.cfg.ReportEmail == "" || len(files) == 0 {
		return nil
	}

	from := mail.NewEmail("Porte-à-Porte Fibre", s.cfg.SendgridFromEmail)
	to := mail.NewEmail("", s.cfg.ReportEmail)
	subject := fmt.Sprintf("Rapport de visites du %s", day.Format("2006-01-02"))
	body := fmt.Sprintf("Rapport quotidien : %d opérateur(s) avec des visites.", len(files))

	msg := mail.NewSingleEmail(from, subject, to, body, body)
	for _, f := range files {
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(f.data))
		att.SetType("text/csv")
		att.SetFilename(f.name)
		att.SetDisposition("attachment")
		msg.AddAttachment(att)
	}
	if s.cfg.SendgridSandboxMode {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}

	if _, err := s.sendgridClient.Send(msg); err != nil {
		utils.Logger.WithError(err).Error("Failed to send daily report email")
		return err
	}
	return nil
}

func (s *ReportService) writeFile(name string, data []byte) error {
	if err := os.MkdirAll(s.cfg.ExportDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.cfg.ExportDir, name), data, 0o644)
}
