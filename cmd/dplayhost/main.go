/*
dplayhost is a standalone DirectPlay session host: it answers
EnumSessions discovery probes, admits players over TCP/UDP, and
reflects session membership through SuperEnumPlayersReply.
*/
package main

import (
	"crypto/rand"
	"flag"
	"log"

	"github.com/dplayhost/dplayhost/internal/config"
	"github.com/dplayhost/dplayhost/internal/dpsp"
	"github.com/dplayhost/dplayhost/internal/logging"
	"github.com/dplayhost/dplayhost/internal/metrics"
	"github.com/dplayhost/dplayhost/internal/netio"
	"github.com/dplayhost/dplayhost/internal/session"
	"github.com/dplayhost/dplayhost/internal/wire"
)

func main() {
	confPath := flag.String("conf", "config/dplayhost.yml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*confPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	var instanceGUID [16]byte
	if _, err := rand.Read(instanceGUID[:]); err != nil {
		logger.Fatalw("failed to seed instance guid", "error", err)
	}

	met := &metrics.Metrics{}

	sessCfg := session.Config{
		Name:                      cfg.SessionName,
		ApplicationGUID:           cfg.ApplicationGUID,
		MaxPlayers:                uint32(cfg.MaxPlayers),
		Flags:                     session.DefaultSessionFlags,
		AdvanceUniquenessPerAlloc: false,
	}
	sess := session.New(sessCfg, instanceGUID, logger, met)

	nameServer := sess.CreateSystemPlayer(wire.PlayerNameServer | wire.PlayerSendingMachine)
	nameServer.ShortName = cfg.SessionName
	nameServer.ServiceProviderData = append(
		wire.SockaddrInLike{Family: 2, Port: uint16(cfg.ListenPort)}.Encode(),
		wire.SockaddrInLike{Family: 2, Port: uint16(cfg.ListenPort)}.Encode()...,
	)

	dispatcher := dpsp.New(sess, logger, met)
	srv := netio.New(cfg.ListenAddress, uint16(cfg.ListenPort), sess, dispatcher, logger, met)

	logger.Infow("starting dplayhost",
		"address", cfg.ListenAddress,
		"port", cfg.ListenPort,
		"session", cfg.SessionName,
		"max_players", cfg.MaxPlayers,
	)

	if err := srv.Serve(); err != nil {
		logger.Fatalw("server exited", "error", err)
	}
}
