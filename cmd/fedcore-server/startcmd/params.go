/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fedcore/federation/internal/pkg/cmdutil"
)

const commonEnvVarUsageText = "Alternatively, this can be set with the following environment variable: "

const (
	hostURLFlagName      = "host-url"
	hostURLFlagShorthand = "u"
	hostURLEnvKey        = "FEDCORE_HOST_URL"
	hostURLFlagUsage     = "URL to run the fedcore-server instance on. Format: HostName:Port."

	originFlagName  = "origin"
	originEnvKey    = "FEDCORE_ORIGIN"
	originFlagUsage = "The public base IRI this server identifies itself as, e.g. https://fedcore.example.com. " +
		commonEnvVarUsageText + originEnvKey

	tlsCertFlagName  = "tls-cert-file"
	tlsCertEnvKey    = "FEDCORE_TLS_CERT_FILE"
	tlsCertFlagUsage = "TLS certificate file. " + commonEnvVarUsageText + tlsCertEnvKey

	tlsKeyFlagName  = "tls-key-file"
	tlsKeyEnvKey    = "FEDCORE_TLS_KEY_FILE"
	tlsKeyFlagUsage = "TLS key file. " + commonEnvVarUsageText + tlsKeyEnvKey

	authTokenFlagName  = "auth-token"
	authTokenEnvKey    = "FEDCORE_AUTH_TOKEN" //nolint:gosec
	authTokenFlagUsage = "Bearer token required of every inbound request, if set. " +
		commonEnvVarUsageText + authTokenEnvKey

	queueBackendFlagName  = "queue-backend"
	queueBackendEnvKey    = "FEDCORE_QUEUE_BACKEND"
	queueBackendFlagUsage = "Message queue backend: memory or amqp. Defaults to memory. " +
		commonEnvVarUsageText + queueBackendEnvKey

	amqpURIFlagName  = "amqp-uri"
	amqpURIEnvKey    = "FEDCORE_AMQP_URI"
	amqpURIFlagUsage = "AMQP broker URI, required when queue-backend is amqp. " +
		commonEnvVarUsageText + amqpURIEnvKey

	httpSignActiveKeyIDFlagName  = "http-sign-active-key-id"
	httpSignActiveKeyIDEnvKey    = "FEDCORE_HTTP_SIGN_ACTIVE_KEY_ID"
	httpSignActiveKeyIDFlagUsage = "The key ID IRI this server signs outgoing activities with. " +
		commonEnvVarUsageText + httpSignActiveKeyIDEnvKey

	httpSignPrivateKeyFlagName  = "http-sign-private-key-pem-file"
	httpSignPrivateKeyEnvKey    = "FEDCORE_HTTP_SIGN_PRIVATE_KEY_PEM_FILE"
	httpSignPrivateKeyFlagUsage = "Path to the PEM-encoded private key used to sign outgoing activities. " +
		commonEnvVarUsageText + httpSignPrivateKeyEnvKey

	allowPrivateNetworksFlagName  = "allow-private-networks"
	allowPrivateNetworksEnvKey    = "FEDCORE_ALLOW_PRIVATE_NETWORKS"
	allowPrivateNetworksFlagUsage = "Allow the document loader and delivery pipeline to dial private/loopback " +
		"addresses. Intended for local development only. " + commonEnvVarUsageText + allowPrivateNetworksEnvKey

	maxDeliveryAttemptsFlagName  = "max-delivery-attempts"
	maxDeliveryAttemptsEnvKey    = "FEDCORE_MAX_DELIVERY_ATTEMPTS"
	maxDeliveryAttemptsFlagUsage = "Maximum delivery attempts per recipient before an activity is given up on. " +
		commonEnvVarUsageText + maxDeliveryAttemptsEnvKey

	requestTimeoutFlagName  = "request-timeout"
	requestTimeoutEnvKey    = "FEDCORE_REQUEST_TIMEOUT"
	requestTimeoutFlagUsage = "Timeout for outbound HTTP requests (document fetches and deliveries). " +
		commonEnvVarUsageText + requestTimeoutEnvKey
)

const (
	defaultMaxDeliveryAttempts = 5
	defaultRequestTimeout      = 30 * time.Second
)

// queueBackend identifies which mq.Queue implementation to construct.
type queueBackend string

const (
	queueBackendMemory queueBackend = "memory"
	queueBackendAMQP   queueBackend = "amqp"
)

type fedcoreParameters struct {
	hostURL                   string
	origin                    string
	tlsCertFile               string
	tlsKeyFile                string
	authToken                 string
	logLevel                  string
	queueBackend              queueBackend
	amqpURI                   string
	httpSignActiveKeyID       string
	httpSignPrivateKeyPEMFile string
	allowPrivateNetworks      bool
	maxDeliveryAttempts       int
	requestTimeout            time.Duration
}

func createFlags(startCmd *cobra.Command) {
	startCmd.Flags().StringP(hostURLFlagName, hostURLFlagShorthand, "", hostURLFlagUsage)
	startCmd.Flags().StringP(originFlagName, "", "", originFlagUsage)
	startCmd.Flags().StringP(tlsCertFlagName, "", "", tlsCertFlagUsage)
	startCmd.Flags().StringP(tlsKeyFlagName, "", "", tlsKeyFlagUsage)
	startCmd.Flags().StringP(authTokenFlagName, "", "", authTokenFlagUsage)
	startCmd.Flags().StringP(LogLevelFlagName, LogLevelFlagShorthand, "", LogLevelFlagUsage)
	startCmd.Flags().StringP(queueBackendFlagName, "", "", queueBackendFlagUsage)
	startCmd.Flags().StringP(amqpURIFlagName, "", "", amqpURIFlagUsage)
	startCmd.Flags().StringP(httpSignActiveKeyIDFlagName, "", "", httpSignActiveKeyIDFlagUsage)
	startCmd.Flags().StringP(httpSignPrivateKeyFlagName, "", "", httpSignPrivateKeyFlagUsage)
	startCmd.Flags().StringP(allowPrivateNetworksFlagName, "", "", allowPrivateNetworksFlagUsage)
	startCmd.Flags().StringP(maxDeliveryAttemptsFlagName, "", "", maxDeliveryAttemptsFlagUsage)
	startCmd.Flags().StringP(requestTimeoutFlagName, "", "", requestTimeoutFlagUsage)
}

func getFedcoreParameters(cmd *cobra.Command) (*fedcoreParameters, error) {
	hostURL, err := cmdutil.GetUserSetVarFromString(cmd, hostURLFlagName, hostURLEnvKey, false)
	if err != nil {
		return nil, err
	}

	origin, err := cmdutil.GetUserSetVarFromString(cmd, originFlagName, originEnvKey, false)
	if err != nil {
		return nil, err
	}

	tlsCertFile := cmdutil.GetUserSetOptionalVarFromString(cmd, tlsCertFlagName, tlsCertEnvKey)
	tlsKeyFile := cmdutil.GetUserSetOptionalVarFromString(cmd, tlsKeyFlagName, tlsKeyEnvKey)
	authToken := cmdutil.GetUserSetOptionalVarFromString(cmd, authTokenFlagName, authTokenEnvKey)

	logLevel, err := cmdutil.GetUserSetVarFromString(cmd, LogLevelFlagName, LogLevelEnvKey, true)
	if err != nil {
		return nil, err
	}

	backendStr := cmdutil.GetUserSetOptionalVarFromString(cmd, queueBackendFlagName, queueBackendEnvKey)
	if backendStr == "" {
		backendStr = string(queueBackendMemory)
	}

	amqpURI := cmdutil.GetUserSetOptionalVarFromString(cmd, amqpURIFlagName, amqpURIEnvKey)

	httpSignActiveKeyID := cmdutil.GetUserSetOptionalVarFromString(cmd, httpSignActiveKeyIDFlagName,
		httpSignActiveKeyIDEnvKey)

	httpSignPrivateKeyPEMFile := cmdutil.GetUserSetOptionalVarFromString(cmd, httpSignPrivateKeyFlagName,
		httpSignPrivateKeyEnvKey)

	allowPrivateNetworks, err := cmdutil.GetBool(cmd, allowPrivateNetworksFlagName, allowPrivateNetworksEnvKey, false)
	if err != nil {
		return nil, err
	}

	maxDeliveryAttempts, err := cmdutil.GetInt(cmd, maxDeliveryAttemptsFlagName, maxDeliveryAttemptsEnvKey,
		defaultMaxDeliveryAttempts)
	if err != nil {
		return nil, err
	}

	requestTimeout, err := cmdutil.GetDuration(cmd, requestTimeoutFlagName, requestTimeoutEnvKey,
		defaultRequestTimeout)
	if err != nil {
		return nil, err
	}

	return &fedcoreParameters{
		hostURL:                   hostURL,
		origin:                    origin,
		tlsCertFile:               tlsCertFile,
		tlsKeyFile:                tlsKeyFile,
		authToken:                 authToken,
		logLevel:                  logLevel,
		queueBackend:              queueBackend(backendStr),
		amqpURI:                   amqpURI,
		httpSignActiveKeyID:       httpSignActiveKeyID,
		httpSignPrivateKeyPEMFile: httpSignPrivateKeyPEMFile,
		allowPrivateNetworks:      allowPrivateNetworks,
		maxDeliveryAttempts:       maxDeliveryAttempts,
		requestTimeout:            requestTimeout,
	}, nil
}
