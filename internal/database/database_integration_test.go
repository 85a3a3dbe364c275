// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package database_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/pgcreds/internal/credential"
	"github.com/holomush/pgcreds/internal/database"
	"github.com/holomush/pgcreds/pkg/errutil"
)

const (
	testDatabase = "pgcreds_test"
	testUser     = "pgcreds"
	testPassword = "pgcreds-secret"
)

// postgresTarget is a running container and the address it is reachable on.
type postgresTarget struct {
	host      string
	port      int
	terminate func()
}

func startPostgres(ctx context.Context) (*postgresTarget, error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}
	mapped, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, err
	}

	return &postgresTarget{
		host: host,
		port: mapped.Int(),
		terminate: func() {
			_ = container.Terminate(ctx)
		},
	}, nil
}

// writeCredentialFiles writes a service file and password file for target.
func writeCredentialFiles(dir string, target *postgresTarget, password string) (string, string) {
	serviceFile := filepath.Join(dir, "pg_service.conf")
	passFile := filepath.Join(dir, "pgpass")

	services := fmt.Sprintf("[it]\nhost=%s\nport=%d\ndbname=%s\nuser=%s\nsslmode=disable\n",
		target.host, target.port, testDatabase, testUser)
	passwords := fmt.Sprintf("%s:%d:%s:%s:%s\n", target.host, target.port, testDatabase, testUser, password)

	Expect(os.WriteFile(serviceFile, []byte(services), 0o600)).To(Succeed())
	Expect(os.WriteFile(passFile, []byte(passwords), 0o600)).To(Succeed())
	return serviceFile, passFile
}

var _ = Describe("Connect", Ordered, func() {
	var target *postgresTarget

	BeforeAll(func() {
		var err error
		target, err = startPostgres(context.Background())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if target != nil {
			target.terminate()
		}
	})

	It("connects with credentials resolved from files", func() {
		ctx := context.Background()
		serviceFile, passFile := writeCredentialFiles(GinkgoT().TempDir(), target, testPassword)

		resolver, err := credential.NewFileResolver(serviceFile, passFile)
		Expect(err).NotTo(HaveOccurred())
		cred, err := resolver.Resolve("it")
		Expect(err).NotTo(HaveOccurred())
		Expect(cred.SSLMode).To(Equal("disable"))

		pool, err := database.Connect(ctx, cred, database.Options{Attempts: 5, Backoff: 100 * time.Millisecond})
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		version, err := pool.ServerVersion(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(version.Major()).To(Equal(uint64(16)))
		Expect(database.CheckServerVersion(version, ">= 14")).To(Succeed())

		var user string
		err = pool.WithConn(ctx, func(ctx context.Context, conn *pgxpool.Conn) error {
			return conn.QueryRow(ctx, "SELECT current_user").Scan(&user)
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(user).To(Equal(testUser))
	})

	It("does not retry a rejected password", func() {
		ctx := context.Background()
		serviceFile, passFile := writeCredentialFiles(GinkgoT().TempDir(), target, "wrong-password")

		resolver, err := credential.NewFileResolver(serviceFile, passFile)
		Expect(err).NotTo(HaveOccurred())
		cred, err := resolver.Resolve("it")
		Expect(err).NotTo(HaveOccurred())

		start := time.Now()
		_, err = database.Connect(ctx, cred, database.Options{Attempts: 5, Backoff: 2 * time.Second})
		Expect(err).To(HaveOccurred())
		Expect(errutil.Code(err)).To(Equal(database.CodeAuthFailed))
		Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
	})

	It("reports an unknown database", func() {
		ctx := context.Background()
		cred := credential.Credential{
			Service:  "missing-db",
			Host:     target.host,
			Port:     target.port,
			DBName:   "does_not_exist",
			User:     testUser,
			Password: testPassword,
			SSLMode:  "disable",
		}

		_, err := database.Connect(ctx, cred, database.Options{Attempts: 1})
		Expect(err).To(HaveOccurred())
		Expect(errutil.Code(err)).To(Equal(database.CodeDatabaseNotFound))
	})
})
