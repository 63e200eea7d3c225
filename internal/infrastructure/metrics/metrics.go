package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Contadores de los tres motores, etiquetados por resultado.
var (
	TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devicetrack_transfers_total",
		Help: "Traslados de dispositivos ejecutados, por resultado.",
	}, []string{"result"})

	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devicetrack_scans_total",
		Help: "Seriales escaneados en sesiones, por motor y resultado.",
	}, []string{"engine", "result"})

	SessionCompletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devicetrack_session_completions_total",
		Help: "Cierres de sesión, por motor y resultado.",
	}, []string{"engine", "result"})
)
