// Package server accepts websocket connections and exposes the events of all
// of them as one merged sequence.
//
// Every connection is wrapped as a wsmux.Source of Events: a connect event,
// then one event per text or binary message, then a close event carrying the
// close code and reason. The sources are merged by a wsmux.Multiplexer, so a
// single loop can serve every client:
//
//	srv, err := server.Serve(server.Config{Addr: ":8080"})
//	if err != nil {
//		return err
//	}
//	for ev := range srv.EventsContext(ctx) {
//		if ev.Kind == server.EventText {
//			_ = ev.Socket.WriteText(ev.Text)
//		}
//	}
package server
