package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/config"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	appHTTP "github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/handler/http"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/cron"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/database"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/jwt"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/xendit"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/repository/postgresql"
	billingService "github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/service/billing"
	creditService "github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/service/credit"
	feeService "github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/service/fee"
	invoiceService "github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/service/invoice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(context.Background(), cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	clubRepo := postgresql.NewClubRepository(db)
	guardianRepo := postgresql.NewGuardianRepository(db)
	childRepo := postgresql.NewChildRepository(db)
	invoiceRepo := postgresql.NewInvoiceRepository(db)
	paymentRepo := postgresql.NewPaymentRepository(db)
	feeConfigRepo := postgresql.NewFeeConfigRepository(db)
	creditRepo := postgresql.NewCreditRepository(db)
	auditRepo := postgresql.NewAuditRepository(db)
	txManager := postgresql.NewTxManager(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	gateway := xendit.NewClient(cfg.Xendit, cfg.Billing.Currency)
	webhookVerifier := xendit.NewWebhookVerifier(cfg.Xendit.CallbackToken)

	feeResolver := feeService.NewFeeResolver(childRepo, feeConfigRepo)
	invoiceSvc := invoiceService.NewInvoiceService(
		invoiceRepo,
		guardianRepo,
		childRepo,
		clubRepo,
		feeConfigRepo,
		auditRepo,
		feeResolver,
		gateway,
		txManager,
		billing.DueDateRule{Day: cfg.Billing.DueDay},
	)
	creditSvc := creditService.NewCreditService(creditRepo, invoiceRepo, auditRepo, txManager)
	bulkSvc := billingService.NewBulkService(guardianRepo, invoiceSvc, cfg.Billing.Workers)
	reconcileSvc := billingService.NewReconcileService(invoiceRepo, paymentRepo, auditRepo, creditSvc, txManager)

	invoiceHandler := appHTTP.NewInvoiceHandler(invoiceSvc, auditRepo)
	billingHandler := appHTTP.NewBillingHandler(bulkSvc, invoiceSvc)
	creditHandler := appHTTP.NewCreditHandler(creditSvc)
	webhookHandler := appHTTP.NewWebhookHandler(reconcileSvc, invoiceRepo, webhookVerifier)

	if cfg.Billing.AutoGenerate {
		scheduler := cron.NewScheduler()
		cron.RegisterBillingJobs(scheduler, clubRepo, bulkSvc)
		scheduler.Start()
		defer scheduler.Stop()
	}

	router := appHTTP.NewRouter(
		jwtService,
		invoiceHandler,
		billingHandler,
		creditHandler,
		webhookHandler,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
