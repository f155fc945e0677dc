/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"context"
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/trustbloc/edge-core/pkg/log"

	"github.com/fedcore/federation/pkg/delivery"
	"github.com/fedcore/federation/pkg/docloader"
	"github.com/fedcore/federation/pkg/federation"
	"github.com/fedcore/federation/pkg/httpserver"
	"github.com/fedcore/federation/pkg/httpsig"
	"github.com/fedcore/federation/pkg/kv"
	"github.com/fedcore/federation/pkg/mq"
	"github.com/fedcore/federation/pkg/pubsub/amqp"
	"github.com/fedcore/federation/pkg/pubsub/mempubsub"
	"github.com/fedcore/federation/pkg/router"
	"github.com/fedcore/federation/pkg/urlguard"
)

var logger = log.New("fedcore-server")

const (
	deliveryTopic   = "outbound_activities"
	parallelWorkers = 10
	shutdownTimeout = 10 * time.Second
)

// GetStartCmd returns the Cobra start command.
func GetStartCmd() *cobra.Command {
	startCmd := createStartCmd()

	createFlags(startCmd)

	return startCmd
}

func createStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start fedcore-server",
		Long:  "Start fedcore-server",
		RunE: func(cmd *cobra.Command, args []string) error {
			parameters, err := getFedcoreParameters(cmd)
			if err != nil {
				return err
			}

			return startFedcoreServices(parameters)
		},
	}
}

func startFedcoreServices(parameters *fedcoreParameters) error {
	setLogLevels(logger, parameters.logLevel)

	guard := urlguard.New(nil)

	httpClient := &http.Client{Timeout: parameters.requestTimeout}

	cache := kv.NewMemStore(0)
	actors := kv.NewMemStore(0)

	loaderCfg := docloader.DefaultConfig()
	loaderCfg.Timeout = parameters.requestTimeout
	loaderCfg.AllowPrivateNet = parameters.allowPrivateNetworks

	loader := docloader.New(loaderCfg, httpClient, guard, cache)

	queue, err := newQueue(parameters)
	if err != nil {
		return fmt.Errorf("create message queue: %w", err)
	}

	signer := httpsig.NewDoubleKnockSigner(
		httpsig.NewRFC9421Signer(httpsig.DefaultRFC9421Config()),
		httpsig.NewLegacySigner(httpsig.DefaultLegacyPostConfig()),
		cache,
	)

	verifier := httpsig.NewDoubleKnockVerifier(
		httpsig.NewRFC9421Verifier(),
		httpsig.NewLegacyVerifier(),
	)

	resolver := federation.NewDocumentKeyResolver(loader)

	keys, err := newKeyProvider(parameters)
	if err != nil {
		return fmt.Errorf("load signing key: %w", err)
	}

	deliveryCfg := delivery.DefaultConfig()
	deliveryCfg.Topic = deliveryTopic
	deliveryCfg.MaxAttempts = parameters.maxDeliveryAttempts
	deliveryCfg.MaxWorkers = parallelWorkers

	pipeline := delivery.New(deliveryCfg, queue, &http.Client{Timeout: parameters.requestTimeout}, signer, keys,
		newFollowersResolver(actors), cache)

	r := router.New()
	b := federation.NewBuilder(r)

	if err := wireDispatchers(b, actors, parameters.origin); err != nil {
		return fmt.Errorf("wire federation dispatchers: %w", err)
	}

	fed, err := b.Build(federation.Options{
		Pipeline:    pipeline,
		Loader:      loader,
		Verifier:    verifier,
		KeyResolver: resolver,
		Idempotence: cache,
		Origin:      parameters.origin,
	})
	if err != nil {
		return fmt.Errorf("build federation: %w", err)
	}

	queue.Start()
	defer queue.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := pipeline.RunOutbox(ctx); err != nil && ctx.Err() == nil {
			logger.Infof("delivery pipeline stopped: %s", err)
		}
	}()

	handler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fed.Fetch(w, req, federation.FetchOptions{})
	})

	srv := httpserver.NewWithHandler(parameters.hostURL, parameters.tlsCertFile, parameters.tlsKeyFile,
		parameters.authToken, handler)

	return runServer(srv)
}

func newQueue(parameters *fedcoreParameters) (mq.Queue, error) {
	switch parameters.queueBackend {
	case queueBackendAMQP:
		if parameters.amqpURI == "" {
			return nil, fmt.Errorf("%s is required when %s is %q", amqpURIFlagName, queueBackendFlagName, queueBackendAMQP)
		}

		return amqp.New(amqp.Config{URI: parameters.amqpURI}), nil
	case queueBackendMemory, "":
		return mempubsub.New(mempubsub.DefaultConfig()), nil
	default:
		return nil, fmt.Errorf("unsupported %s %q", queueBackendFlagName, parameters.queueBackend)
	}
}

type staticKeyProvider struct {
	key   crypto.PrivateKey
	keyID string
}

func (p staticKeyProvider) SigningKey(_ context.Context) (interface{}, string, error) {
	return p.key, p.keyID, nil
}

func newKeyProvider(parameters *fedcoreParameters) (delivery.KeyProvider, error) {
	if parameters.httpSignPrivateKeyPEMFile == "" {
		logger.Warnf("%s not set; generating an ephemeral signing key for this run only", httpSignPrivateKeyFlagName)

		return newEphemeralKeyProvider(parameters.origin)
	}

	raw, err := os.ReadFile(parameters.httpSignPrivateKeyPEMFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", httpSignPrivateKeyFlagName, err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block found", parameters.httpSignPrivateKeyPEMFile)
	}

	key, err := parsePrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return staticKeyProvider{key: key, keyID: parameters.httpSignActiveKeyID}, nil
}

func newEphemeralKeyProvider(origin string) (delivery.KeyProvider, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral signing key: %w", err)
	}

	return staticKeyProvider{key: priv, keyID: origin + "#generated-key"}, nil
}

func parsePrivateKey(der []byte) (crypto.PrivateKey, error) {
	if len(der) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(der), nil
	}

	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("unsupported private key encoding: %w", err)
	}

	return key, nil
}

func runServer(srv *httpserver.Server) error {
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	logger.Infof("started fedcore-server")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-interrupt

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Stop(ctx)
}
