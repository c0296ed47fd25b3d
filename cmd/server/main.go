package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/minibank/ledger/internal/events"
	"github.com/minibank/ledger/internal/events/kafka"
	"github.com/minibank/ledger/internal/interfaces"
	"github.com/minibank/ledger/internal/ledger"
	"github.com/minibank/ledger/internal/models"
	"github.com/minibank/ledger/internal/storage/memory"
	"github.com/minibank/ledger/internal/storage/postgres"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	var store interfaces.LedgerStore = memory.NewMemoryLedgerStore()
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			log.Fatal(err)
		}
		if err := db.Ping(); err != nil {
			log.Fatal(err)
		}
		store = postgres.NewPostgresLedgerStore(db)
		log.Println("Using postgres ledger store")
	}

	var publisher interfaces.EventPublisher = events.NoopPublisher{}
	var kafkaPub *kafka.Publisher
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kafkaPub = kafka.NewPublisher(strings.Split(brokers, ","))
		publisher = kafkaPub
		log.Println("Publishing transaction events to kafka at", brokers)
	}

	bank := ledger.NewLedger(store, publisher)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	http.HandleFunc("/customers", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			id := r.URL.Query().Get("id")
			if id == "" {
				http.Error(w, "id is a mandatory field", http.StatusBadRequest)
				return
			}
			customer, err := bank.Customer(id)
			if err != nil {
				http.Error(w, err.Error(), statusForErr(err))
				return
			}
			writeJSON(w, customer)
			return
		case http.MethodPost:
			// handled below
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			BirthDate string `json:"birth_date"`
			Address   string `json:"address"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		customer := models.Customer{
			ID:        req.ID,
			Name:      req.Name,
			BirthDate: req.BirthDate,
			Address:   req.Address,
			CreatedAt: time.Now(),
		}
		if err := bank.RegisterCustomer(r.Context(), customer); err != nil {
			http.Error(w, err.Error(), statusForErr(err))
			return
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, customer)
	})

	http.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req struct {
				CustomerID string           `json:"customer_id"`
				Checking   bool             `json:"checking"`
				Limit      *decimal.Decimal `json:"withdrawal_limit"`
				Cap        *int             `json:"daily_withdrawal_cap"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}

			var policy *models.WithdrawalPolicy
			if req.Checking {
				p := models.DefaultWithdrawalPolicy()
				if req.Limit != nil {
					p.Limit = *req.Limit
				}
				if req.Cap != nil {
					p.Cap = *req.Cap
				}
				policy = &p
			}

			account, err := bank.OpenAccount(r.Context(), req.CustomerID, policy)
			if err != nil {
				http.Error(w, err.Error(), statusForErr(err))
				return
			}

			w.WriteHeader(http.StatusCreated)
			writeJSON(w, account)

		case http.MethodGet:
			customerID := r.URL.Query().Get("customer_id")
			if customerID == "" {
				http.Error(w, "customer_id is a mandatory field", http.StatusBadRequest)
				return
			}

			accounts, err := bank.Accounts(customerID)
			if err != nil {
				http.Error(w, err.Error(), statusForErr(err))
				return
			}
			writeJSON(w, accounts)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	http.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			CustomerID    string          `json:"customer_id"`
			AccountNumber int64           `json:"account_number"`
			Kind          models.Kind     `json:"kind"`
			Amount        decimal.Decimal `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		tx := models.Transaction{
			ID:        r.Header.Get("Idempotency-Key"),
			Kind:      req.Kind,
			Amount:    req.Amount,
			CreatedAt: time.Now(),
		}
		if tx.ID == "" {
			tx.ID = uuid.New().String()
		}

		if err := bank.Apply(r.Context(), req.CustomerID, req.AccountNumber, tx); err != nil {
			http.Error(w, err.Error(), statusForErr(err))
			return
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, tx)
	})

	http.HandleFunc("/accounts/balance", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		number, ok := accountNumberParam(w, r)
		if !ok {
			return
		}

		balance, err := bank.Balance(number)
		if err != nil {
			http.Error(w, err.Error(), statusForErr(err))
			return
		}

		writeJSON(w, struct {
			AccountNumber int64           `json:"account_number"`
			Balance       decimal.Decimal `json:"balance"`
		}{number, balance})
	})

	http.HandleFunc("/accounts/statement", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		number, ok := accountNumberParam(w, r)
		if !ok {
			return
		}

		entries, err := bank.Statement(number)
		if err != nil {
			http.Error(w, err.Error(), statusForErr(err))
			return
		}
		balance, err := bank.Balance(number)
		if err != nil {
			http.Error(w, err.Error(), statusForErr(err))
			return
		}

		writeJSON(w, struct {
			AccountNumber int64                 `json:"account_number"`
			Entries       []models.HistoryEntry `json:"entries"`
			Balance       decimal.Decimal       `json:"balance"`
		}{number, entries, balance})
	})

	srv := &http.Server{Addr: addr}
	go func() {
		log.Println("Starting server on", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	// Shut down on SIGINT/SIGTERM so in-flight requests finish and the
	// kafka writer flushes before the process exits.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("shutdown:", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			log.Println("close kafka writer:", err)
		}
	}
}

func accountNumberParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("account_number")
	if raw == "" {
		http.Error(w, "account_number is a mandatory field", http.StatusBadRequest)
		return 0, false
	}
	number, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "account_number must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return number, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("encode response:", err)
	}
}

// statusForErr maps domain sentinels to HTTP statuses. Anything the
// taxonomy doesn't cover is a store fault.
func statusForErr(err error) int {
	switch {
	case errors.Is(err, models.ErrCustomerNotFound),
		errors.Is(err, models.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAccountNotOwned):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrWithdrawalLimitExceeded),
		errors.Is(err, models.ErrWithdrawalCapReached),
		errors.Is(err, models.ErrTransactionApplied),
		errors.Is(err, models.ErrCustomerExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidParameters),
		errors.Is(err, models.ErrInvalidCustomerID),
		errors.Is(err, models.ErrUnknownTransactionKind):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
